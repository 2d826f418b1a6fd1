package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store is the persistence surface the billing workflows need.
type Store interface {
	CreateBusiness(ctx context.Context, b Business) error
	GetBusiness(ctx context.Context, id string) (*Business, error)
	ListBusinesses(ctx context.Context) ([]Business, error)
	CreateCustomer(ctx context.Context, c Customer) error
	UpdateCustomer(ctx context.Context, c Customer) error
	ListCustomers(ctx context.Context, businessID string) ([]Customer, error)
	CreateService(ctx context.Context, s Service) error
	ListServices(ctx context.Context, businessID string) ([]Service, error)
	CreateExpense(ctx context.Context, e Expense) error
	ListExpenses(ctx context.Context) ([]Expense, error)
	CreateInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	AddPayment(ctx context.Context, invoiceID string, p Payment, status InvoiceStatus) error
	NextInvoiceSeq(ctx context.Context, businessID string) (int64, error)
}

// Notifier is invoked after every successful mutation so dependents can
// drop derived state. A nil notifier is a no-op.
type Notifier func(ctx context.Context)

// Manager implements the billing workflows: entity CRUD, invoice
// numbering and payment registration.
type Manager struct {
	store    Store
	validate *validator.Validate
	notify   Notifier
	now      func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, notify Notifier) *Manager {
	return &Manager{
		store:    store,
		validate: validator.New(),
		notify:   notify,
		now:      time.Now,
	}
}

// WithNow overrides the manager clock for testing.
func (m *Manager) WithNow(fn func() time.Time) {
	if fn != nil {
		m.now = fn
	}
}

func (m *Manager) changed(ctx context.Context) {
	if m.notify != nil {
		m.notify(ctx)
	}
}

// BusinessInput carries a new business profile.
type BusinessInput struct {
	Name     string `json:"name" validate:"required"`
	Prefix   string `json:"prefix" validate:"required,alphanum,uppercase,max=8"`
	Currency string `json:"currency"`
	GST      string `json:"gst"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// CreateBusiness validates and persists a business.
func (m *Manager) CreateBusiness(ctx context.Context, input BusinessInput) (*Business, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	currency := input.Currency
	if currency == "" {
		currency = "INR"
	}
	b := Business{
		ID:       "biz_" + uuid.NewString(),
		Name:     input.Name,
		Prefix:   input.Prefix,
		Currency: currency,
		GST:      input.GST,
		Phone:    input.Phone,
		Email:    input.Email,
	}
	if err := m.store.CreateBusiness(ctx, b); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &b, nil
}

// ListBusinesses returns all businesses.
func (m *Manager) ListBusinesses(ctx context.Context) ([]Business, error) {
	return m.store.ListBusinesses(ctx)
}

// CustomerInput carries a new or updated customer profile.
type CustomerInput struct {
	BusinessID  string  `json:"businessId" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email" validate:"omitempty,email"`
	CreditLimit float64 `json:"creditLimit" validate:"gte=0"`
	CreditDays  int     `json:"creditDays" validate:"gte=0"`
}

// CreateCustomer validates and persists a customer.
func (m *Manager) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	c := Customer{
		ID:          "cus_" + uuid.NewString(),
		BusinessID:  input.BusinessID,
		Name:        input.Name,
		Phone:       input.Phone,
		Email:       input.Email,
		CreditLimit: input.CreditLimit,
		CreditDays:  input.CreditDays,
	}
	if err := m.store.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &c, nil
}

// UpdateCustomer validates and applies profile changes to an existing
// customer.
func (m *Manager) UpdateCustomer(ctx context.Context, id string, input CustomerInput) (*Customer, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	c := Customer{
		ID:          id,
		BusinessID:  input.BusinessID,
		Name:        input.Name,
		Phone:       input.Phone,
		Email:       input.Email,
		CreditLimit: input.CreditLimit,
		CreditDays:  input.CreditDays,
	}
	if err := m.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &c, nil
}

// ListCustomers returns customers, optionally scoped to one business.
func (m *Manager) ListCustomers(ctx context.Context, businessID string) ([]Customer, error) {
	return m.store.ListCustomers(ctx, businessID)
}

// ServiceInput carries a new catalog entry.
type ServiceInput struct {
	BusinessID string  `json:"businessId" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
}

// CreateService validates and persists a catalog service.
func (m *Manager) CreateService(ctx context.Context, input ServiceInput) (*Service, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	s := Service{
		ID:         "svc_" + uuid.NewString(),
		BusinessID: input.BusinessID,
		Name:       input.Name,
		Price:      input.Price,
	}
	if err := m.store.CreateService(ctx, s); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &s, nil
}

// ListServices returns catalog services, optionally scoped to one business.
func (m *Manager) ListServices(ctx context.Context, businessID string) ([]Service, error) {
	return m.store.ListServices(ctx, businessID)
}

// ExpenseInput carries a recorded outflow.
type ExpenseInput struct {
	BusinessID string    `json:"businessId" validate:"required"`
	Date       time.Time `json:"date"`
	Category   string    `json:"category" validate:"required"`
	Amount     float64   `json:"amount" validate:"gt=0"`
	Notes      string    `json:"notes"`
}

// CreateExpense validates and persists an expense.
func (m *Manager) CreateExpense(ctx context.Context, input ExpenseInput) (*Expense, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	date := input.Date
	if date.IsZero() {
		date = m.now()
	}
	e := Expense{
		ID:         "exp_" + uuid.NewString(),
		BusinessID: input.BusinessID,
		Date:       date,
		Category:   input.Category,
		Amount:     input.Amount,
		Notes:      input.Notes,
	}
	if err := m.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &e, nil
}

// ListExpenses returns all recorded expenses.
func (m *Manager) ListExpenses(ctx context.Context) ([]Expense, error) {
	return m.store.ListExpenses(ctx)
}

// CreateInvoice validates the input, allocates the next number from the
// business prefix and persists the built invoice.
func (m *Manager) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	biz, err := m.store.GetBusiness(ctx, input.BusinessID)
	if err != nil {
		return nil, err
	}
	seq, err := m.store.NextInvoiceSeq(ctx, biz.ID)
	if err != nil {
		return nil, err
	}
	number := fmt.Sprintf("%s-%04d", biz.Prefix, seq)

	inv := BuildInvoice(input, number, m.now())
	if err := m.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	m.changed(ctx)
	return &inv, nil
}

// GetInvoice returns one invoice with items and payments.
func (m *Manager) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return m.store.GetInvoice(ctx, id)
}

// ListInvoices returns all invoices.
func (m *Manager) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return m.store.ListInvoices(ctx)
}

// PaymentInput carries a payment against an existing invoice.
type PaymentInput struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount" validate:"gt=0"`
	Method string    `json:"method"`
	Notes  string    `json:"notes"`
}

// RegisterPayment appends a payment to an invoice and recomputes its
// status from the new paid total.
func (m *Manager) RegisterPayment(ctx context.Context, invoiceID string, input PaymentInput) (*Invoice, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, err
	}
	inv, err := m.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = m.now()
	}
	method := input.Method
	if method == "" {
		method = "Cash"
	}
	p := Payment{Date: date, Amount: input.Amount, Method: method, Notes: input.Notes}

	status := DeriveStatus(inv.Total, inv.Paid()+p.Amount, inv.Status == StatusCredit)
	if err := m.store.AddPayment(ctx, invoiceID, p, status); err != nil {
		return nil, err
	}

	inv.Payments = append(inv.Payments, p)
	inv.Status = status
	m.changed(ctx)
	return inv, nil
}

// ImportInvoices normalizes loosely-shaped invoice records and persists
// them. Records are processed independently; the first storage error
// aborts the batch.
func (m *Manager) ImportInvoices(ctx context.Context, raws []RawInvoice) ([]Invoice, error) {
	invoices := NormalizeInvoices(raws)
	for i := range invoices {
		if invoices[i].ID == "" {
			invoices[i].ID = "inv_" + uuid.NewString()
		}
		if err := m.store.CreateInvoice(ctx, invoices[i]); err != nil {
			return nil, fmt.Errorf("import invoice %d: %w", i, err)
		}
	}
	if len(invoices) > 0 {
		m.changed(ctx)
	}
	return invoices, nil
}
