package reports

import (
	"context"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// DataSource is the read surface a snapshot is assembled from. The billing
// repository satisfies it.
type DataSource interface {
	ListInvoices(ctx context.Context) ([]billing.Invoice, error)
	ListCustomers(ctx context.Context, businessID string) ([]billing.Customer, error)
	ListBusinesses(ctx context.Context) ([]billing.Business, error)
	ListServices(ctx context.Context, businessID string) ([]billing.Service, error)
	ListExpenses(ctx context.Context) ([]billing.Expense, error)
}

// StoreLoader adapts a DataSource into a SnapshotLoader.
type StoreLoader struct {
	src DataSource
}

// NewStoreLoader wraps the data source.
func NewStoreLoader(src DataSource) *StoreLoader {
	return &StoreLoader{src: src}
}

// LoadSnapshot assembles the full dataset for a derivation pass.
func (l *StoreLoader) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	invoices, err := l.src.ListInvoices(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	customers, err := l.src.ListCustomers(ctx, "")
	if err != nil {
		return Snapshot{}, err
	}
	businesses, err := l.src.ListBusinesses(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	services, err := l.src.ListServices(ctx, "")
	if err != nil {
		return Snapshot{}, err
	}
	expenses, err := l.src.ListExpenses(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Invoices:   invoices,
		Customers:  customers,
		Businesses: businesses,
		Services:   services,
		Expenses:   expenses,
	}, nil
}
