package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkite/ledgerkite/internal/platform/db"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("billing: not found")

// ErrConflict indicates a uniqueness violation, such as a reused id or
// invoice number.
var ErrConflict = errors.New("billing: conflict")

// mapError translates driver errors to the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// Repository provides PostgreSQL backed persistence for billing entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func dateParam(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func dateValue(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// --- Businesses ---

// CreateBusiness inserts a business.
func (r *Repository) CreateBusiness(ctx context.Context, b Business) error {
	const query = `
		INSERT INTO businesses (id, name, prefix, currency, gst, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, b.ID, b.Name, b.Prefix, b.Currency, b.GST, b.Phone, b.Email)
	return mapError(err)
}

// ListBusinesses returns all businesses ordered by name.
func (r *Repository) ListBusinesses(ctx context.Context) ([]Business, error) {
	const query = `
		SELECT id, name, prefix, currency, gst, phone, email
		FROM businesses ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Business
	for rows.Next() {
		var b Business
		if err := rows.Scan(&b.ID, &b.Name, &b.Prefix, &b.Currency, &b.GST, &b.Phone, &b.Email); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBusinessIDs returns just the business ids, for scope discovery.
func (r *Repository) ListBusinessIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM businesses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetBusiness retrieves a business by id.
func (r *Repository) GetBusiness(ctx context.Context, id string) (*Business, error) {
	const query = `
		SELECT id, name, prefix, currency, gst, phone, email
		FROM businesses WHERE id = $1`
	var b Business
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Prefix, &b.Currency, &b.GST, &b.Phone, &b.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// --- Customers ---

// CreateCustomer inserts a customer.
func (r *Repository) CreateCustomer(ctx context.Context, c Customer) error {
	const query = `
		INSERT INTO customers (id, business_id, name, phone, email, credit_limit, credit_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, c.ID, c.BusinessID, c.Name, c.Phone, c.Email, c.CreditLimit, c.CreditDays)
	return mapError(err)
}

// UpdateCustomer updates a customer's mutable fields.
func (r *Repository) UpdateCustomer(ctx context.Context, c Customer) error {
	const query = `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, credit_limit = $5, credit_days = $6
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Phone, c.Email, c.CreditLimit, c.CreditDays)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCustomers returns customers, optionally scoped to one business.
func (r *Repository) ListCustomers(ctx context.Context, businessID string) ([]Customer, error) {
	const query = `
		SELECT id, business_id, name, phone, email, credit_limit, credit_days
		FROM customers
		WHERE ($1 = '' OR business_id = $1)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Phone, &c.Email, &c.CreditLimit, &c.CreditDays); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Services ---

// CreateService inserts a service.
func (r *Repository) CreateService(ctx context.Context, s Service) error {
	const query = `
		INSERT INTO services (id, business_id, name, price)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.BusinessID, s.Name, s.Price)
	return mapError(err)
}

// ListServices returns services, optionally scoped to one business.
func (r *Repository) ListServices(ctx context.Context, businessID string) ([]Service, error) {
	const query = `
		SELECT id, business_id, name, price
		FROM services
		WHERE ($1 = '' OR business_id = $1)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- Expenses ---

// CreateExpense inserts an expense record.
func (r *Repository) CreateExpense(ctx context.Context, e Expense) error {
	const query = `
		INSERT INTO expenses (id, business_id, spent_at, category, amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, e.ID, e.BusinessID, dateParam(e.Date), e.Category, e.Amount, e.Notes)
	return mapError(err)
}

// ListExpenses returns all expenses ordered by date.
func (r *Repository) ListExpenses(ctx context.Context) ([]Expense, error) {
	const query = `
		SELECT id, business_id, spent_at, category, amount, notes
		FROM expenses ORDER BY spent_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		var spentAt pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &e.BusinessID, &spentAt, &e.Category, &e.Amount, &e.Notes); err != nil {
			return nil, err
		}
		e.Date = dateValue(spentAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Invoices ---

// CreateInvoice persists an invoice with its items and any initial payment
// in one transaction.
func (r *Repository) CreateInvoice(ctx context.Context, inv Invoice) error {
	return mapError(db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const invQuery = `
			INSERT INTO invoices (
				id, invoice_number, business_id, customer_id, issued_at, due_at,
				discount, commission, subtotal, tax_total, total, status, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
		_, err := tx.Exec(ctx, invQuery,
			inv.ID, inv.InvoiceNumber, inv.BusinessID, inv.CustomerID,
			dateParam(inv.Date), dateParam(inv.DueDate),
			inv.Discount, inv.Commission, inv.Subtotal, inv.TaxTotal, inv.Total,
			string(inv.Status), inv.Notes,
		)
		if err != nil {
			return err
		}

		const itemQuery = `
			INSERT INTO invoice_items (invoice_id, position, service_id, qty, rate, tax_pct, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		for i, it := range inv.Items {
			if _, err := tx.Exec(ctx, itemQuery, inv.ID, i, it.ServiceID, it.Qty, it.Rate, it.TaxPct, it.Amount); err != nil {
				return err
			}
		}

		const payQuery = `
			INSERT INTO payments (invoice_id, paid_at, amount, method, notes)
			VALUES ($1, $2, $3, $4, $5)`
		for _, p := range inv.Payments {
			if _, err := tx.Exec(ctx, payQuery, inv.ID, dateParam(p.Date), p.Amount, p.Method, p.Notes); err != nil {
				return err
			}
		}
		return nil
	}))
}

// AddPayment appends a payment to an invoice and refreshes its status.
func (r *Repository) AddPayment(ctx context.Context, invoiceID string, p Payment, status InvoiceStatus) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const payQuery = `
			INSERT INTO payments (invoice_id, paid_at, amount, method, notes)
			VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, payQuery, invoiceID, dateParam(p.Date), p.Amount, p.Method, p.Notes); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, invoiceID, string(status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetInvoice retrieves one invoice with items and payments.
func (r *Repository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	invoices, err := r.listInvoices(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ErrNotFound
	}
	return &invoices[0], nil
}

// ListInvoices returns all invoices with items and payments attached.
func (r *Repository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return r.listInvoices(ctx, "")
}

func (r *Repository) listInvoices(ctx context.Context, id string) ([]Invoice, error) {
	const query = `
		SELECT id, invoice_number, business_id, customer_id, issued_at, due_at,
			discount, commission, subtotal, tax_total, total, status, notes
		FROM invoices
		WHERE ($1 = '' OR id = $1)
		ORDER BY issued_at NULLS LAST, id`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	index := make(map[string]int)
	for rows.Next() {
		var inv Invoice
		var issuedAt, dueAt pgtype.Timestamptz
		var status string
		if err := rows.Scan(
			&inv.ID, &inv.InvoiceNumber, &inv.BusinessID, &inv.CustomerID,
			&issuedAt, &dueAt,
			&inv.Discount, &inv.Commission, &inv.Subtotal, &inv.TaxTotal, &inv.Total,
			&status, &inv.Notes,
		); err != nil {
			return nil, err
		}
		inv.Date = dateValue(issuedAt)
		inv.DueDate = dateValue(dueAt)
		inv.Status = InvoiceStatus(status)
		index[inv.ID] = len(invoices)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	if err := r.attachItems(ctx, id, invoices, index); err != nil {
		return nil, err
	}
	if err := r.attachPayments(ctx, id, invoices, index); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *Repository) attachItems(ctx context.Context, id string, invoices []Invoice, index map[string]int) error {
	const query = `
		SELECT invoice_id, service_id, qty, rate, tax_pct, amount
		FROM invoice_items
		WHERE ($1 = '' OR invoice_id = $1)
		ORDER BY invoice_id, position`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID string
		var it LineItem
		if err := rows.Scan(&invoiceID, &it.ServiceID, &it.Qty, &it.Rate, &it.TaxPct, &it.Amount); err != nil {
			return err
		}
		if i, ok := index[invoiceID]; ok {
			invoices[i].Items = append(invoices[i].Items, it)
		}
	}
	return rows.Err()
}

func (r *Repository) attachPayments(ctx context.Context, id string, invoices []Invoice, index map[string]int) error {
	const query = `
		SELECT invoice_id, paid_at, amount, method, notes
		FROM payments
		WHERE ($1 = '' OR invoice_id = $1)
		ORDER BY invoice_id, paid_at NULLS LAST`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID string
		var paidAt pgtype.Timestamptz
		var p Payment
		if err := rows.Scan(&invoiceID, &paidAt, &p.Amount, &p.Method, &p.Notes); err != nil {
			return err
		}
		p.Date = dateValue(paidAt)
		if i, ok := index[invoiceID]; ok {
			invoices[i].Payments = append(invoices[i].Payments, p)
		}
	}
	return rows.Err()
}

// NextInvoiceSeq increments and returns the per-business invoice sequence.
func (r *Repository) NextInvoiceSeq(ctx context.Context, businessID string) (int64, error) {
	const query = `
		INSERT INTO invoice_sequences (business_id, seq)
		VALUES ($1, 1)
		ON CONFLICT (business_id) DO UPDATE SET seq = invoice_sequences.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.pool.QueryRow(ctx, query, businessID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
