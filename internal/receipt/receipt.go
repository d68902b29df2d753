// Package receipt turns a receipt photo into structured bill data by way of
// an OCR collaborator.
package receipt

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/split"
)

var (
	ErrMissingItems = errors.New("ocr response has no items list")
	ErrNoItems      = errors.New("ocr found no items on the receipt")
)

// PhotoRef points at an image held by the chat transport.
type PhotoRef struct {
	URL         string
	Filename    string
	ContentType string
}

// Receipt is a normalized OCR result.
type Receipt struct {
	Items    []split.LineItem
	Subtotal float64
	Tax      float64
	Service  float64
	Discount float64
	Total    float64
	Merchant string
	Date     string
}

// Document is the OCR wire format. Every amount is optional.
type Document struct {
	Items    []DocumentItem `json:"items"`
	Total    *Amount        `json:"total,omitempty"`
	Subtotal *Amount        `json:"subtotal,omitempty"`
	Tax      *Amount        `json:"tax,omitempty"`
	Service  *Amount        `json:"service,omitempty"`
	Discount *Amount        `json:"discount,omitempty"`
	Merchant string         `json:"merchant,omitempty"`
	Date     string         `json:"date,omitempty"`
}

type DocumentItem struct {
	Name     string  `json:"name"`
	Price    Amount  `json:"price"`
	Quantity *Amount `json:"quantity,omitempty"`
	Discount *Amount `json:"discount,omitempty"`
}

// Amount accepts both JSON numbers and numeric strings; OCR backends send either.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Wrapf(err, "amount %q", s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("amount %q is not a finite number", s)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func amountOr(a *Amount, fallback float64) float64 {
	if a == nil {
		return fallback
	}
	return float64(*a)
}

// Normalize applies the defaults for absent fields and rejects documents
// without usable items.
func Normalize(doc *Document) (*Receipt, error) {
	if doc == nil || doc.Items == nil {
		return nil, ErrMissingItems
	}
	items := make([]split.LineItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		qty := int(amountOr(it.Quantity, 1))
		if qty < 1 {
			qty = 1
		}
		discount := amountOr(it.Discount, 0)
		if discount < 0 {
			discount = 0
		}
		items = append(items, split.LineItem{
			Name:     name,
			Price:    float64(it.Price),
			Quantity: qty,
			Discount: discount,
		})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	sum := split.SumItems(items)
	return &Receipt{
		Items:    items,
		Subtotal: amountOr(doc.Subtotal, sum),
		Tax:      amountOr(doc.Tax, 0),
		Service:  amountOr(doc.Service, 0),
		Discount: amountOr(doc.Discount, 0),
		Total:    amountOr(doc.Total, sum),
		Merchant: strings.TrimSpace(doc.Merchant),
		Date:     strings.TrimSpace(doc.Date),
	}, nil
}

// Bill converts the receipt into session bill data.
func (r *Receipt) Bill() *split.Bill {
	return &split.Bill{
		Total:         r.Total,
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		ServiceCharge: r.Service,
		Discount:      r.Discount,
		Merchant:      r.Merchant,
		Date:          r.Date,
		Source:        split.SourceReceipt,
	}
}
