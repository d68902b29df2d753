package flow

import (
	"strings"

	"github.com/susu3304/sharetabbot/internal/pricing"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
)

// assign runs one event of the per-item assignment. The working selection is
// only committed to Assignments when the cursor moves.
func assign(s *split.Session, c split.Choice) Transition {
	if _, ok := s.CurrentItem(); !ok {
		return unchanged(s)
	}

	switch c.Kind {
	case split.ChoiceToggle:
		if c.Index < 0 || c.Index >= len(s.Participants) {
			return unchanged(s)
		}
		toggle(s, s.Participants[c.Index])
	case split.ChoiceSelectAll:
		s.CurrentSelection = append([]string(nil), s.Participants...)
	case split.ChoiceClearAll:
		s.CurrentSelection = nil
	case split.ChoiceNextItem:
		return advanceCursor(s, s.CurrentSelection)
	case split.ChoiceSkipItem:
		return advanceCursor(s, nil)
	default:
		return unchanged(s)
	}
	return reply(s, render.ItemAssignment(s).Replacing())
}

var assignWords = map[string]split.ChoiceKind{
	"next":       split.ChoiceNextItem,
	"skip":       split.ChoiceSkipItem,
	"all":        split.ChoiceSelectAll,
	"select all": split.ChoiceSelectAll,
	"clear":      split.ChoiceClearAll,
	"clear all":  split.ChoiceClearAll,
}

// assignText accepts the assignment controls as typed words, and a
// participant's name as a toggle for them. Other text is ignored.
func assignText(s *split.Session, text string) Transition {
	word := strings.ToLower(strings.TrimSpace(text))
	if kind, ok := assignWords[word]; ok {
		return typed(assign(s, split.Choice{Kind: kind}))
	}
	for i, name := range s.Participants {
		if strings.EqualFold(name, strings.TrimSpace(text)) {
			return typed(assign(s, split.Toggle(i)))
		}
	}
	return unchanged(s)
}

// typed posts replies as new messages; there is no pressed prompt to redraw.
func typed(tr Transition) Transition {
	for i := range tr.Replies {
		tr.Replies[i].Replace = false
	}
	return tr
}

func toggle(s *split.Session, name string) {
	for i, n := range s.CurrentSelection {
		if n == name {
			s.CurrentSelection = append(s.CurrentSelection[:i], s.CurrentSelection[i+1:]...)
			return
		}
	}
	s.CurrentSelection = append(s.CurrentSelection, name)
}

func advanceCursor(s *split.Session, commit []string) Transition {
	if s.Assignments == nil {
		s.Assignments = make(map[int][]string, len(s.Items))
	}
	s.Assignments[s.CurrentItemIndex] = append([]string{}, commit...)
	s.CurrentItemIndex++
	s.CurrentSelection = nil

	if s.CurrentItemIndex < len(s.Items) {
		return reply(s, render.ItemAssignment(s))
	}
	s.Step = split.StepDone
	return Transition{
		Session: s,
		Replies: []render.Message{render.Calculating()},
		Effect:  EffectCalculate{Method: pricing.MethodItemized, Request: pricing.ItemizedRequest(s)},
	}
}
