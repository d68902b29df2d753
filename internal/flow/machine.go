package flow

import (
	"strings"
	"time"

	"github.com/susu3304/sharetabbot/internal/pricing"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
)

// Advance applies ev to sess and returns the next state. sess is never
// modified; the returned Session is a fresh copy. A nil sess means the
// conversation has no live session.
func Advance(sess *split.Session, ev Event) Transition {
	if ev.Kind == KindStart {
		return reply(split.NewSession(time.Time{}), render.InputMethod())
	}
	if sess == nil {
		switch ev.Kind {
		case KindChoice:
			return reply(nil, render.Expired())
		case KindCancel:
			return reply(nil, render.Cancelled())
		}
		return Transition{}
	}

	s := sess.Clone()
	switch ev.Kind {
	case KindCancel:
		return reply(nil, render.Cancelled())
	case KindText:
		switch command(ev.Text) {
		case cmdStartOver:
			return reply(nil, render.Cancelled())
		case cmdBack:
			return back(s)
		}
		return onText(s, ev.Text)
	case KindPhoto:
		if s.Step == split.StepPhotoUpload && ev.Photo != nil {
			return Transition{
				Session: s,
				Replies: []render.Message{render.ProcessingReceipt()},
				Effect:  EffectReadReceipt{Photo: *ev.Photo},
			}
		}
	case KindChoice:
		if ev.Choice.Kind == split.ChoiceBack {
			return back(s)
		}
		return onChoice(s, ev.Choice)
	case KindReceiptRead:
		if s.Step == split.StepPhotoUpload {
			return receiptRead(s, ev)
		}
	case KindCalculated:
		if s.Step == split.StepDone {
			return calculated(s, ev)
		}
	}
	return unchanged(s)
}

type textCommand int

const (
	cmdNone textCommand = iota
	cmdBack
	cmdStartOver
)

func command(text string) textCommand {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "back", "/back":
		return cmdBack
	case "start over", "/cancel":
		return cmdStartOver
	}
	return cmdNone
}

func reply(s *split.Session, msgs ...render.Message) Transition {
	return Transition{Session: s, Replies: msgs}
}

func unchanged(s *split.Session) Transition {
	return Transition{Session: s}
}

func onText(s *split.Session, text string) Transition {
	switch s.Step {
	case split.StepManualAmount:
		amount, err := split.ParseAmount(text)
		if err != nil {
			return reply(s, render.InvalidAmount())
		}
		s.Bill = &split.Bill{Total: amount, Subtotal: amount, Source: split.SourceAmount}
		s.Items = nil
		s.ClearAssignment()
		s.Step = split.StepParticipants
		return reply(s, render.AskParticipants())

	case split.StepManualItems:
		items, err := split.ParseItems(text)
		if err != nil {
			return reply(s, render.InvalidItems())
		}
		sum := split.SumItems(items)
		bill := &split.Bill{Total: sum, Subtotal: sum, Source: split.SourceItems}
		if s.Bill != nil {
			bill.Merchant = s.Bill.Merchant
			bill.Date = s.Bill.Date
		}
		s.Bill = bill
		s.Items = items
		s.ClearAssignment()
		s.Step = split.StepParticipants
		return reply(s, render.AskParticipants())

	case split.StepParticipants:
		names, err := split.ParseParticipants(text)
		if err != nil {
			return reply(s, render.InvalidParticipants(err))
		}
		s.Participants = names
		s.ClearAssignment()
		s.Step = split.StepSplitMethod
		return reply(s, render.SplitMethod())

	case split.StepItemAssignment:
		return assignText(s, text)
	}
	return unchanged(s)
}

func onChoice(s *split.Session, c split.Choice) Transition {
	switch s.Step {
	case split.StepInputMethod:
		switch c.Kind {
		case split.ChoiceManual:
			s.Step = split.StepManualAmount
			return reply(s, render.AskAmount())
		case split.ChoicePhoto:
			s.Step = split.StepPhotoUpload
			return reply(s, render.AskPhoto())
		}

	case split.StepConfirmItems:
		switch c.Kind {
		case split.ChoiceConfirm:
			s.Step = split.StepParticipants
			return reply(s, render.AskParticipants())
		case split.ChoiceEdit:
			s.Step = split.StepManualItems
			return reply(s, render.AskItems())
		}

	case split.StepSplitMethod:
		switch c.Kind {
		case split.ChoiceEqual:
			s.Step = split.StepDone
			return Transition{
				Session: s,
				Replies: []render.Message{render.Calculating()},
				Effect:  EffectCalculate{Method: pricing.MethodEqual, Request: pricing.EqualRequest(s)},
			}
		case split.ChoiceItemized:
			if len(s.Items) == 0 {
				return reply(s, render.NoItems())
			}
			s.ClearAssignment()
			s.Assignments = make(map[int][]string, len(s.Items))
			s.Step = split.StepItemAssignment
			return reply(s, render.ItemAssignment(s))
		}

	case split.StepItemAssignment:
		return assign(s, c)
	}
	return unchanged(s)
}

// back moves to the step before the current one. Only the input method
// boundary discards collected data; other steps keep it.
func back(s *split.Session) Transition {
	switch s.Step {
	case split.StepInputMethod:
		return reply(s, render.InputMethod())
	case split.StepManualAmount, split.StepPhotoUpload:
		s.Reset()
		return reply(s, render.InputMethod())
	case split.StepConfirmItems:
		s.Step = split.StepPhotoUpload
		return reply(s, render.AskPhoto())
	case split.StepManualItems:
		s.Step = split.StepConfirmItems
		return reply(s, render.ItemsFound(s.Bill, s.Items))
	case split.StepParticipants:
		return backFromParticipants(s)
	case split.StepSplitMethod:
		s.Step = split.StepParticipants
		return reply(s, render.AskParticipants())
	case split.StepItemAssignment:
		s.ClearAssignment()
		s.Step = split.StepSplitMethod
		return reply(s, render.SplitMethod())
	}
	return unchanged(s)
}

func backFromParticipants(s *split.Session) Transition {
	var source split.Source
	if s.Bill != nil {
		source = s.Bill.Source
	}
	switch source {
	case split.SourceAmount:
		s.Step = split.StepManualAmount
		return reply(s, render.AskAmount())
	case split.SourceItems:
		s.Step = split.StepManualItems
		return reply(s, render.AskItems())
	case split.SourceReceipt:
		s.Step = split.StepConfirmItems
		return reply(s, render.ItemsFound(s.Bill, s.Items))
	}
	s.Reset()
	return reply(s, render.InputMethod())
}

func receiptRead(s *split.Session, ev Event) Transition {
	if ev.Err != nil || ev.Receipt == nil || len(ev.Receipt.Items) == 0 {
		s.Step = split.StepManualAmount
		return reply(s, render.ReceiptFailed(), render.AskAmount())
	}
	s.Bill = ev.Receipt.Bill()
	s.Items = append([]split.LineItem(nil), ev.Receipt.Items...)
	s.ClearAssignment()
	s.Step = split.StepConfirmItems
	return reply(s, render.ItemsFound(s.Bill, s.Items))
}

// calculated ends the session whatever the outcome; a failed calculation is
// not retried.
func calculated(s *split.Session, ev Event) Transition {
	if ev.Err != nil || ev.Result == nil || ev.Result.PerPersonCharges == nil {
		return reply(nil, render.CalculationFailed())
	}
	return reply(nil, render.Result(ev.Method, s.Participants, ev.Result))
}
