package pricing

import "github.com/susu3304/sharetabbot/internal/split"

type Method int

const (
	MethodEqual Method = iota + 1
	MethodItemized
)

func (m Method) String() string {
	switch m {
	case MethodEqual:
		return "equal"
	case MethodItemized:
		return "itemized"
	}
	return "unknown"
}

// EqualDescription names the single synthetic line of an equal split.
const EqualDescription = "Total bill"

type Item struct {
	Description  string   `json:"description"`
	UnitPrice    float64  `json:"unitPrice"`
	Quantity     int      `json:"quantity"`
	ItemDiscount float64  `json:"itemDiscount"`
	PaidBy       string   `json:"paidBy"`
	Consumers    []string `json:"consumers"`
}

type Request struct {
	Items         []Item  `json:"items"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"serviceCharge"`
	TotalDiscount float64 `json:"totalDiscount"`
}

type Breakdown struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"serviceCharge"`
	Discount      float64 `json:"discount"`
}

type Result struct {
	PerPersonCharges   map[string]float64
	PerPersonBreakdown map[string]Breakdown
	Amount             float64
}

// GrandTotal is the collaborator's total, or the sum of charges when it sent none.
func (r *Result) GrandTotal() float64 {
	if r.Amount > 0 {
		return r.Amount
	}
	var sum float64
	for _, v := range r.PerPersonCharges {
		sum += v
	}
	return sum
}

func withBillCharges(req Request, bill *split.Bill) Request {
	if bill != nil {
		req.Tax = bill.Tax
		req.ServiceCharge = bill.ServiceCharge
		req.TotalDiscount = bill.Discount
	}
	return req
}

// EqualRequest covers the whole subtotal with one line shared by everyone.
// The first participant is recorded as payer; it does not change anyone's charge.
func EqualRequest(sess *split.Session) Request {
	var subtotal float64
	if sess.Bill != nil {
		subtotal = sess.Bill.Subtotal
	}
	var payer string
	if len(sess.Participants) > 0 {
		payer = sess.Participants[0]
	}
	req := Request{Items: []Item{{
		Description: EqualDescription,
		UnitPrice:   subtotal,
		Quantity:    1,
		PaidBy:      payer,
		Consumers:   append([]string{}, sess.Participants...),
	}}}
	return withBillCharges(req, sess.Bill)
}

// ItemizedRequest sends one line per assigned item. Unassigned items are left out.
func ItemizedRequest(sess *split.Session) Request {
	items := make([]Item, 0, len(sess.Items))
	for idx, it := range sess.Items {
		consumers := sess.Assignments[idx]
		if len(consumers) == 0 {
			continue
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, Item{
			Description:  it.Name,
			UnitPrice:    it.Price,
			Quantity:     qty,
			ItemDiscount: it.Discount,
			PaidBy:       consumers[0],
			Consumers:    append([]string{}, consumers...),
		})
	}
	return withBillCharges(Request{Items: items}, sess.Bill)
}
