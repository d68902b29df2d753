package flow

import (
	"github.com/susu3304/sharetabbot/internal/pricing"
	"github.com/susu3304/sharetabbot/internal/receipt"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
)

type Kind int

const (
	KindStart Kind = iota + 1
	KindText
	KindPhoto
	KindChoice
	KindCancel

	// Completion kinds are produced by the Engine after running an Effect.
	KindReceiptRead
	KindCalculated
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindChoice:
		return "choice"
	case KindCancel:
		return "cancel"
	case KindReceiptRead:
		return "receipt_read"
	case KindCalculated:
		return "calculated"
	}
	return "unknown"
}

// Event is one inbound occurrence for a conversation.
type Event struct {
	ConversationID string
	Kind           Kind
	Text           string
	Photo          *receipt.PhotoRef
	Choice         split.Choice

	// Set on completion events.
	Receipt *receipt.Receipt
	Method  pricing.Method
	Result  *pricing.Result
	Err     error
}

// Effect is a collaborator call requested by a transition.
type Effect interface {
	effect()
}

type EffectReadReceipt struct {
	Photo receipt.PhotoRef
}

type EffectCalculate struct {
	Method  pricing.Method
	Request pricing.Request
}

func (EffectReadReceipt) effect() {}
func (EffectCalculate) effect()   {}

// Transition is the outcome of one event. A nil Session means the
// conversation's session is deleted.
type Transition struct {
	Session *split.Session
	Replies []render.Message
	Effect  Effect
}
