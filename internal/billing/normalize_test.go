package billing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInvoiceAlternateFieldNames(t *testing.T) {
	payload := []byte(`{
		"id": "inv_1",
		"invoice number": "ACME-0042",
		"businessId": "b1",
		"customerId": "c1",
		"created": "2025-03-01",
		"due": "2025-03-31",
		"items": [
			{"service": "s1", "qty": 2, "rate": 150, "tax": 0},
			{"serviceId": "s2", "qty": "1", "rate": "99.5"}
		],
		"discount": "50",
		"commission": 25,
		"payments": [
			{"paidOn": "2025-04-02", "amount": "100", "mode": "UPI"}
		]
	}`)

	var raw RawInvoice
	require.NoError(t, json.Unmarshal(payload, &raw))
	inv := NormalizeInvoice(raw)

	assert.Equal(t, "inv_1", inv.ID)
	assert.Equal(t, "ACME-0042", inv.InvoiceNumber)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), inv.Date)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), inv.DueDate)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, "s1", inv.Items[0].ServiceID)
	assert.Equal(t, 300.0, inv.Items[0].Amount)
	assert.Equal(t, "s2", inv.Items[1].ServiceID)
	assert.InDelta(t, 99.5, inv.Items[1].Amount, 1e-9)

	// total == max(0, sum(qty*rate) - discount)
	assert.InDelta(t, 349.5, inv.Total, 1e-9)
	assert.Equal(t, 25.0, inv.Commission)

	require.Len(t, inv.Payments, 1)
	assert.Equal(t, "UPI", inv.Payments[0].Method)
	assert.Equal(t, 100.0, inv.Payments[0].Amount)
	assert.Equal(t, StatusPartial, inv.Status)
}

func TestNormalizeInvoiceMalformedDates(t *testing.T) {
	raw := RawInvoice{
		ID:   "inv_2",
		Date: "not a date",
		Due:  "32/13/9999",
	}
	inv := NormalizeInvoice(raw)
	assert.True(t, inv.Date.IsZero())
	assert.True(t, inv.DueDate.IsZero())
}

func TestNormalizeInvoiceMissingNumericDefaults(t *testing.T) {
	raw := RawInvoice{
		ID:    "inv_3",
		Items: []RawLineItem{{ServiceID: "s1"}},
	}
	inv := NormalizeInvoice(raw)
	assert.Equal(t, 0.0, inv.Total)
	assert.Equal(t, 0.0, inv.Discount)
	assert.Equal(t, 0.0, inv.Commission)
	assert.Equal(t, 0.0, inv.Items[0].Qty)
}

func TestNormalizeInvoiceDropsNonPositivePayments(t *testing.T) {
	raw := RawInvoice{
		ID: "inv_4",
		Payments: []RawPayment{
			{Amount: json.RawMessage(`0`)},
			{Amount: json.RawMessage(`-5`)},
			{Amount: json.RawMessage(`10`), Date: "2025-01-01"},
		},
	}
	inv := NormalizeInvoice(raw)
	require.Len(t, inv.Payments, 1)
	assert.Equal(t, 10.0, inv.Payments[0].Amount)
}

func TestNormalizeInvoiceDerivesStatusWhenMissing(t *testing.T) {
	raw := RawInvoice{
		ID:    "inv_5",
		Total: json.RawMessage(`100`),
		Payments: []RawPayment{
			{Amount: json.RawMessage(`100`), Date: "2025-01-01"},
		},
	}
	inv := NormalizeInvoice(raw)
	assert.Equal(t, StatusPaid, inv.Status)

	raw.Status = "Credit"
	assert.Equal(t, StatusCredit, NormalizeInvoice(raw).Status)
}

func TestNormalizeInvoiceTotalClampedAtZero(t *testing.T) {
	raw := RawInvoice{
		ID:       "inv_6",
		Items:    []RawLineItem{{ServiceID: "s1", Qty: json.RawMessage(`1`), Rate: json.RawMessage(`40`)}},
		Discount: json.RawMessage(`100`),
	}
	inv := NormalizeInvoice(raw)
	assert.Equal(t, 0.0, inv.Total)
}

func TestNormalizeInvoicesBatchTolerant(t *testing.T) {
	raws := []RawInvoice{
		{ID: "good", Total: json.RawMessage(`100`)},
		{ID: "bad", Total: json.RawMessage(`"garbage"`), Date: "???"},
	}
	out := NormalizeInvoices(raws)
	require.Len(t, out, 2)
	assert.Equal(t, 100.0, out[0].Total)
	assert.Equal(t, 0.0, out[1].Total)
}

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]bool{
		"2025-06-15":                true,
		"2025-06-15T10:30:00Z":      true,
		"2025-06-15 10:30:00":       true,
		"15/06/2025":                true,
		"June 15th":                 false,
		"":                          false,
	}
	for input, ok := range cases {
		got := ParseDate(input)
		assert.Equal(t, ok, !got.IsZero(), "input %q", input)
	}
}

func TestBuildInvoice(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := BuildInvoice(InvoiceInput{
		BusinessID: "b1",
		CustomerID: "c1",
		Items: []LineItem{
			{ServiceID: "s1", Qty: 2, Rate: 500, TaxPct: 10},
		},
		Discount: 100,
		PaidNow:  200,
	}, "ACME-0007", now)

	assert.Equal(t, "ACME-0007", inv.InvoiceNumber)
	assert.InDelta(t, 1000.0, inv.Subtotal, 1e-9)
	assert.InDelta(t, 100.0, inv.TaxTotal, 1e-9)
	assert.InDelta(t, 1000.0, inv.Total, 1e-9)
	assert.Equal(t, StatusPartial, inv.Status)
	require.Len(t, inv.Payments, 1)
	assert.Equal(t, "Cash", inv.Payments[0].Method)
	assert.Contains(t, inv.ID, "inv_")
}

func TestBuildInvoiceCredit(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := BuildInvoice(InvoiceInput{
		BusinessID: "b1",
		CustomerID: "c1",
		Items:      []LineItem{{ServiceID: "s1", Qty: 1, Rate: 100}},
		AsCredit:   true,
	}, "ACME-0008", now)
	assert.Equal(t, StatusCredit, inv.Status)

	// Discount above the line total clamps at zero and reads as settled.
	clamped := BuildInvoice(InvoiceInput{
		BusinessID: "b1",
		CustomerID: "c1",
		Items:      []LineItem{{ServiceID: "s1", Qty: 1, Rate: 100}},
		Discount:   500,
	}, "ACME-0009", now)
	assert.Equal(t, 0.0, clamped.Total)
	assert.Equal(t, StatusPaid, clamped.Status)
}
