package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

type fakeSource struct {
	invoices   []billing.Invoice
	customers  []billing.Customer
	businesses []billing.Business
	services   []billing.Service
	expenses   []billing.Expense
	err        error
}

func (f *fakeSource) ListInvoices(ctx context.Context) ([]billing.Invoice, error) {
	return f.invoices, f.err
}

func (f *fakeSource) ListCustomers(ctx context.Context, businessID string) ([]billing.Customer, error) {
	return f.customers, f.err
}

func (f *fakeSource) ListBusinesses(ctx context.Context) ([]billing.Business, error) {
	return f.businesses, f.err
}

func (f *fakeSource) ListServices(ctx context.Context, businessID string) ([]billing.Service, error) {
	return f.services, f.err
}

func (f *fakeSource) ListExpenses(ctx context.Context) ([]billing.Expense, error) {
	return f.expenses, f.err
}

func TestStoreLoaderAssemblesSnapshot(t *testing.T) {
	src := &fakeSource{
		invoices:   []billing.Invoice{{ID: "inv_1", Total: 500}},
		customers:  []billing.Customer{{ID: "c1", Name: "Asha"}},
		businesses: []billing.Business{{ID: "b1", Prefix: "KITE"}},
		services:   []billing.Service{{ID: "svc_design"}},
		expenses:   []billing.Expense{{ID: "exp_rent", Amount: 1000}},
	}

	snap, err := NewStoreLoader(src).LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.invoices, snap.Invoices)
	assert.Equal(t, src.customers, snap.Customers)
	assert.Equal(t, src.businesses, snap.Businesses)
	assert.Equal(t, src.services, snap.Services)
	assert.Equal(t, src.expenses, snap.Expenses)
}

func TestStoreLoaderPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewStoreLoader(&fakeSource{err: boom}).LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}
