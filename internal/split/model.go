package split

import "time"

// Step is the conversation state of a session.
type Step int

const (
	StepInputMethod Step = iota
	StepManualAmount
	StepPhotoUpload
	StepConfirmItems
	StepManualItems
	StepParticipants
	StepSplitMethod
	StepItemAssignment
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepInputMethod:
		return "input_method"
	case StepManualAmount:
		return "manual_amount"
	case StepPhotoUpload:
		return "photo_upload"
	case StepConfirmItems:
		return "confirm_items"
	case StepManualItems:
		return "manual_items"
	case StepParticipants:
		return "participants"
	case StepSplitMethod:
		return "split_method"
	case StepItemAssignment:
		return "item_assignment"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// Source records how the bill entered the session.
type Source int

const (
	SourceNone Source = iota
	SourceAmount
	SourceReceipt
	SourceItems
)

type Bill struct {
	Total         float64
	Subtotal      float64
	Tax           float64
	ServiceCharge float64
	Discount      float64
	Merchant      string
	Date          string
	Source        Source
}

type LineItem struct {
	Name     string
	Price    float64 // unit price
	Quantity int
	Discount float64
}

// LineTotal is the amount the item contributes to the bill after its own discount.
func (it LineItem) LineTotal() float64 {
	qty := it.Quantity
	if qty < 1 {
		qty = 1
	}
	total := it.Price*float64(qty) - it.Discount
	if total < 0 {
		return 0
	}
	return total
}

// SumItems returns the sum of line totals.
func SumItems(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

type Session struct {
	Step         Step
	Bill         *Bill
	Items        []LineItem
	Participants []string

	// Assignments maps an item index to the participants paying for it.
	// Missing or empty means the item is left out of the calculation.
	Assignments map[int][]string

	// CurrentItemIndex == len(Items) means assignment is complete.
	CurrentItemIndex int
	CurrentSelection []string

	UpdatedAt time.Time
}

func NewSession(now time.Time) *Session {
	return &Session{Step: StepInputMethod, UpdatedAt: now}
}

// Reset drops everything collected so far and returns to the input method step.
func (s *Session) Reset() {
	*s = Session{Step: StepInputMethod, UpdatedAt: s.UpdatedAt}
}

// ClearAssignment drops the item assignment progress.
func (s *Session) ClearAssignment() {
	s.Assignments = nil
	s.CurrentItemIndex = 0
	s.CurrentSelection = nil
}

// CurrentItem returns the item under the assignment cursor.
func (s *Session) CurrentItem() (LineItem, bool) {
	if s.CurrentItemIndex < 0 || s.CurrentItemIndex >= len(s.Items) {
		return LineItem{}, false
	}
	return s.Items[s.CurrentItemIndex], true
}

// Selected reports whether name is part of the working selection.
func (s *Session) Selected(name string) bool {
	for _, n := range s.CurrentSelection {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Bill != nil {
		b := *s.Bill
		c.Bill = &b
	}
	c.Items = append([]LineItem(nil), s.Items...)
	c.Participants = append([]string(nil), s.Participants...)
	c.CurrentSelection = append([]string(nil), s.CurrentSelection...)
	if s.Assignments != nil {
		c.Assignments = make(map[int][]string, len(s.Assignments))
		for idx, names := range s.Assignments {
			c.Assignments[idx] = append([]string(nil), names...)
		}
	}
	return &c
}
