package billing

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus enumerates invoice payment states.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "Pending"
	StatusPartial InvoiceStatus = "Partial"
	StatusPaid    InvoiceStatus = "Paid"
	StatusCredit  InvoiceStatus = "Credit"
)

// Business model. Prefix seeds invoice numbering.
type Business struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Prefix   string `json:"prefix"`
	Currency string `json:"currency"`
	GST      string `json:"gst,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Customer model. CreditLimit and CreditDays bound the customer ledger.
type Customer struct {
	ID          string  `json:"id"`
	BusinessID  string  `json:"businessId"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone,omitempty"`
	Email       string  `json:"email,omitempty"`
	CreditLimit float64 `json:"creditLimit"`
	CreditDays  int     `json:"creditDays"`
}

// Service model, referenced by invoice line items.
type Service struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"businessId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

// LineItem is a single invoice line. Amount is always Qty*Rate.
type LineItem struct {
	ServiceID string  `json:"serviceId"`
	Qty       float64 `json:"qty"`
	Rate      float64 `json:"rate"`
	TaxPct    float64 `json:"taxPct"`
	Amount    float64 `json:"amount"`
}

// Payment is owned exclusively by its parent invoice.
type Payment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
	Method string    `json:"method"`
	Notes  string    `json:"notes,omitempty"`
}

// Invoice is the canonical invoice shape consumed by the reports core.
// Zero Date or DueDate means "unknown"; consumers must treat unknown due
// dates as excluded from aging.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	BusinessID    string        `json:"businessId"`
	CustomerID    string        `json:"customerId"`
	Date          time.Time     `json:"date"`
	DueDate       time.Time     `json:"dueDate"`
	Items         []LineItem    `json:"items"`
	Discount      float64       `json:"discount"`
	Commission    float64       `json:"commission"`
	Subtotal      float64       `json:"subtotal"`
	TaxTotal      float64       `json:"taxTotal"`
	Total         float64       `json:"total"`
	Payments      []Payment     `json:"payments"`
	Status        InvoiceStatus `json:"status"`
	Notes         string        `json:"notes,omitempty"`
}

// Expense is a recorded outflow feeding the cash-flow timeline.
type Expense struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Date       time.Time `json:"date"`
	Category   string    `json:"category"`
	Amount     float64   `json:"amount"`
	Notes      string    `json:"notes,omitempty"`
}

// Paid sums the invoice's payments.
func (inv Invoice) Paid() float64 {
	var paid float64
	for _, p := range inv.Payments {
		paid += p.Amount
	}
	return paid
}

// Outstanding is the unpaid balance, never negative.
func (inv Invoice) Outstanding() float64 {
	out := inv.Total - inv.Paid()
	if out < 0 {
		return 0
	}
	return out
}

// DeriveStatus resolves the invoice status from its amounts. Invoices with
// no payments are Credit when flagged as credit sales, Pending otherwise.
func DeriveStatus(total, paid float64, asCredit bool) InvoiceStatus {
	switch {
	case paid >= total:
		return StatusPaid
	case paid > 0:
		return StatusPartial
	case asCredit:
		return StatusCredit
	default:
		return StatusPending
	}
}

// InvoiceInput carries the fields needed to build a new invoice.
type InvoiceInput struct {
	BusinessID string     `json:"businessId" validate:"required"`
	CustomerID string     `json:"customerId" validate:"required"`
	Date       time.Time  `json:"date"`
	DueDate    time.Time  `json:"dueDate"`
	Items      []LineItem `json:"items" validate:"min=1,dive"`
	Discount   float64    `json:"discount" validate:"gte=0"`
	Commission float64    `json:"commission" validate:"gte=0"`
	AsCredit   bool       `json:"asCredit"`
	PaidNow    float64    `json:"paidNow" validate:"gte=0"`
	Notes      string     `json:"notes"`
}

// BuildInvoice assembles an invoice from its input: line amounts, subtotal,
// tax, discounted total, an optional immediate cash payment and the derived
// status. The total never goes below zero.
func BuildInvoice(input InvoiceInput, number string, now time.Time) Invoice {
	date := input.Date
	if date.IsZero() {
		date = now
	}
	due := input.DueDate
	if due.IsZero() {
		due = now
	}

	items := make([]LineItem, len(input.Items))
	var subtotal, taxTotal float64
	for i, it := range input.Items {
		it.Amount = it.Qty * it.Rate
		subtotal += it.Amount
		taxTotal += it.Amount * it.TaxPct / 100
		items[i] = it
	}
	total := subtotal + taxTotal - input.Discount
	if total < 0 {
		total = 0
	}

	var payments []Payment
	if input.PaidNow > 0 {
		payments = append(payments, Payment{Date: now, Amount: input.PaidNow, Method: "Cash"})
	}
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}

	return Invoice{
		ID:            "inv_" + uuid.NewString(),
		InvoiceNumber: number,
		BusinessID:    input.BusinessID,
		CustomerID:    input.CustomerID,
		Date:          date,
		DueDate:       due,
		Items:         items,
		Discount:      input.Discount,
		Commission:    input.Commission,
		Subtotal:      subtotal,
		TaxTotal:      taxTotal,
		Total:         total,
		Payments:      payments,
		Status:        DeriveStatus(total, paid, input.AsCredit),
		Notes:         input.Notes,
	}
}
