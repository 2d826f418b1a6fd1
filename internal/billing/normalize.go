package billing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RawInvoice mirrors the loose record shape produced by older exports, where
// the same field shows up under several names depending on which client
// wrote the row. Numeric fields may arrive as strings.
type RawInvoice struct {
	ID             string          `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	InvoiceNumber2 string          `json:"invoice number"`
	BusinessID     string          `json:"businessId"`
	CustomerID     string          `json:"customerId"`
	Date           string          `json:"date"`
	Created        string          `json:"created"`
	CreatedAt      string          `json:"createdAt"`
	InvoiceDate    string          `json:"invoiceDate"`
	Due            string          `json:"due"`
	DueDate        string          `json:"dueDate"`
	Items          []RawLineItem   `json:"items"`
	Discount       json.RawMessage `json:"discount"`
	Commission     json.RawMessage `json:"commission"`
	Total          json.RawMessage `json:"total"`
	Payments       []RawPayment    `json:"payments"`
	Status         string          `json:"status"`
	Notes          string          `json:"notes"`
}

// RawLineItem tolerates the item field variants seen in the wild.
type RawLineItem struct {
	ServiceID string          `json:"serviceId"`
	Service   string          `json:"service"`
	Qty       json.RawMessage `json:"qty"`
	Rate      json.RawMessage `json:"rate"`
	TaxPct    json.RawMessage `json:"tax"`
	Amount    json.RawMessage `json:"amount"`
	Total     json.RawMessage `json:"total"`
	Price     json.RawMessage `json:"price"`
}

// RawPayment tolerates the payment field variants.
type RawPayment struct {
	Date   string          `json:"date"`
	PaidOn string          `json:"paidOn"`
	Amount json.RawMessage `json:"amount"`
	Method string          `json:"method"`
	Mode   string          `json:"mode"`
	Notes  string          `json:"notes"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate parses a date string leniently. Empty or malformed input yields
// the zero time, never an error.
func ParseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseAmount coerces a JSON number or numeric string to float64, defaulting
// to 0 on anything malformed.
func parseAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NormalizeInvoice converts a raw record into the canonical invoice shape.
// Missing numeric fields default to 0, missing or malformed dates to the
// zero time. The invoice total is recomputed from the line items and
// discount when the raw total is absent, so the canonical invariant
// total == max(0, sum(qty*rate) - discount) holds either way.
func NormalizeInvoice(raw RawInvoice) Invoice {
	items := make([]LineItem, 0, len(raw.Items))
	var lineSum float64
	for _, it := range raw.Items {
		qty := parseAmount(it.Qty)
		rate := parseAmount(it.Rate)
		if rate == 0 {
			rate = parseAmount(it.Price)
		}
		amount := qty * rate
		if amount == 0 {
			amount = parseAmount(it.Amount)
			if amount == 0 {
				amount = parseAmount(it.Total)
			}
		}
		items = append(items, LineItem{
			ServiceID: firstNonEmpty(it.ServiceID, it.Service, "svc_unknown"),
			Qty:       qty,
			Rate:      rate,
			TaxPct:    parseAmount(it.TaxPct),
			Amount:    amount,
		})
		lineSum += amount
	}

	payments := make([]Payment, 0, len(raw.Payments))
	for _, p := range raw.Payments {
		amount := parseAmount(p.Amount)
		if amount <= 0 {
			continue
		}
		payments = append(payments, Payment{
			Date:   ParseDate(firstNonEmpty(p.Date, p.PaidOn)),
			Amount: amount,
			Method: firstNonEmpty(p.Method, p.Mode, "Unknown"),
			Notes:  p.Notes,
		})
	}

	discount := parseAmount(raw.Discount)
	total := parseAmount(raw.Total)
	if total == 0 && lineSum > 0 {
		total = lineSum - discount
		if total < 0 {
			total = 0
		}
	}

	inv := Invoice{
		ID:            firstNonEmpty(raw.ID, raw.InvoiceNumber, raw.InvoiceNumber2),
		InvoiceNumber: firstNonEmpty(raw.InvoiceNumber, raw.InvoiceNumber2, raw.ID),
		BusinessID:    raw.BusinessID,
		CustomerID:    raw.CustomerID,
		Date:          ParseDate(firstNonEmpty(raw.Date, raw.Created, raw.InvoiceDate, raw.CreatedAt)),
		DueDate:       ParseDate(firstNonEmpty(raw.DueDate, raw.Due)),
		Items:         items,
		Discount:      discount,
		Commission:    parseAmount(raw.Commission),
		Subtotal:      lineSum,
		Total:         total,
		Payments:      payments,
		Notes:         raw.Notes,
	}

	status := InvoiceStatus(raw.Status)
	switch status {
	case StatusPending, StatusPartial, StatusPaid, StatusCredit:
		inv.Status = status
	default:
		inv.Status = DeriveStatus(inv.Total, inv.Paid(), false)
	}
	return inv
}

// NormalizeInvoices normalizes a batch. A corrupt record degrades to its
// safe defaults without aborting the rest.
func NormalizeInvoices(raws []RawInvoice) []Invoice {
	out := make([]Invoice, 0, len(raws))
	for _, raw := range raws {
		out = append(out, NormalizeInvoice(raw))
	}
	return out
}
