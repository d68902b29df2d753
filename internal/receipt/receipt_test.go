package receipt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/sharetabbot/internal/split"
)

func decode(t *testing.T, raw string) *Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}

func TestNormalizeDefaults(t *testing.T) {
	doc := decode(t, `{"items":[{"name":"Coffee","price":10000},{"name":"Cake","price":"7500","quantity":2,"discount":500}]}`)

	rec, err := Normalize(doc)
	require.NoError(t, err)
	assert.Equal(t, []split.LineItem{
		{Name: "Coffee", Price: 10000, Quantity: 1},
		{Name: "Cake", Price: 7500, Quantity: 2, Discount: 500},
	}, rec.Items)
	assert.Equal(t, 24500.0, rec.Subtotal)
	assert.Equal(t, 24500.0, rec.Total)
	assert.Zero(t, rec.Tax)
	assert.Zero(t, rec.Service)
	assert.Zero(t, rec.Discount)
	assert.Empty(t, rec.Merchant)
}

func TestNormalizeKeepsBillFields(t *testing.T) {
	doc := decode(t, `{
		"items":[{"name":"Nasi Goreng","price":25000}],
		"subtotal":25000,"tax":2500,"service":1250,"discount":"1000","total":27750,
		"merchant":" Warung Bu Tini ","date":"2026-10-01"
	}`)

	rec, err := Normalize(doc)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, rec.Subtotal)
	assert.Equal(t, 2500.0, rec.Tax)
	assert.Equal(t, 1250.0, rec.Service)
	assert.Equal(t, 1000.0, rec.Discount)
	assert.Equal(t, 27750.0, rec.Total)
	assert.Equal(t, "Warung Bu Tini", rec.Merchant)

	bill := rec.Bill()
	assert.Equal(t, split.SourceReceipt, bill.Source)
	assert.Equal(t, 1250.0, bill.ServiceCharge)
	assert.Equal(t, "2026-10-01", bill.Date)
}

func TestNormalizeFailures(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrMissingItems)

	_, err = Normalize(decode(t, `{"total": 100}`))
	assert.ErrorIs(t, err, ErrMissingItems)

	_, err = Normalize(decode(t, `{"items": []}`))
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = Normalize(decode(t, `{"items": [{"name": "  ", "price": 5}]}`))
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestAmountUnmarshal(t *testing.T) {
	var doc Document
	assert.Error(t, json.Unmarshal([]byte(`{"items":[{"name":"x","price":"abc"}]}`), &doc))

	doc = Document{}
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"name":"x","price":null}],"tax":""}`), &doc))
	assert.Equal(t, Amount(0), doc.Items[0].Price)
	require.NotNil(t, doc.Tax)
	assert.Equal(t, Amount(0), *doc.Tax)
}

func TestAmountRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{`"NaN"`, `"Inf"`, `"-Infinity"`, `" +inf "`} {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(raw), &a), raw)
	}

	var doc Document
	err := json.Unmarshal([]byte(`{"items":[{"name":"Coffee","price":"NaN"}]}`), &doc)
	assert.Error(t, err)
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		in, name, contentType string
	}{
		{"photos/file_12.jpg", "receipt.jpeg", "image/jpeg"},
		{"IMG.PNG", "receipt.png", "image/png"},
		{"noext", "receipt.jpeg", "image/jpeg"},
		{"", "receipt.jpeg", "image/jpeg"},
		{"scan.webp", "receipt.webp", "image/webp"},
	}
	for _, tt := range tests {
		name, ct := uploadName(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.contentType, ct, tt.in)
	}
}
