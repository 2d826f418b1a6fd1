package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

func TestCLVExample(t *testing.T) {
	// Four invoices totalling 10000 across two distinct months:
	// avgInvoice 2500, freq 2/month, CLV 2500*2*12 = 60000.
	jan := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Customers: []billing.Customer{{ID: "c1", Name: "Asha"}},
		Invoices: []billing.Invoice{
			{CustomerID: "c1", Date: jan, Total: 3000},
			{CustomerID: "c1", Date: jan, Total: 2000},
			{CustomerID: "c1", Date: feb, Total: 2500},
			{CustomerID: "c1", Date: feb, Total: 2500},
		},
	}

	rows := CLVRows(snap, feb)
	require.Len(t, rows, 1)
	assert.Equal(t, "Asha", rows[0].Name)
	assert.InDelta(t, 2500.0, rows[0].AvgInvoice, 1e-9)
	assert.InDelta(t, 2.0, rows[0].FreqPerMonth, 1e-9)
	assert.InDelta(t, 60000.0, rows[0].CLV, 1e-9)
	assert.Equal(t, 4, rows[0].Invoices)
}

func TestCLVUnknownDateCountsCurrentMonth(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Invoices: []billing.Invoice{
			{CustomerID: "c1", Total: 1200}, // no date
		},
	}
	rows := CLVRows(snap, now)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1200.0, rows[0].AvgInvoice, 1e-9)
	assert.InDelta(t, 1.0, rows[0].FreqPerMonth, 1e-9)
	assert.InDelta(t, 1200.0*RetentionMonths, rows[0].CLV, 1e-9)
}

func TestCLVEmptySnapshot(t *testing.T) {
	rows := CLVRows(Snapshot{}, time.Now())
	assert.Empty(t, rows)
}

func TestParetoTopShare(t *testing.T) {
	snap := Snapshot{
		Customers: []billing.Customer{
			{ID: "c1", Name: "Big"},
			{ID: "c2", Name: "Mid"},
			{ID: "c3", Name: "Small"},
			{ID: "c4", Name: "Tiny"},
			{ID: "c5", Name: "Dust"},
		},
		Invoices: []billing.Invoice{
			{CustomerID: "c1", Total: 8000},
			{CustomerID: "c2", Total: 1000},
			{CustomerID: "c3", Total: 500},
			{CustomerID: "c4", Total: 300},
			{CustomerID: "c5", Total: 200},
		},
	}

	result := Pareto(snap)
	require.Len(t, result.Rows, 5)
	// Top 20% of 5 customers is 1 customer holding 80% of revenue.
	assert.Equal(t, 1, result.TopCount)
	assert.Equal(t, 80, result.TopShare)
	assert.Equal(t, "Big", result.Rows[0].Name)
	assert.Equal(t, 80, result.Rows[0].CumulativePct)
	assert.Equal(t, 100, result.Rows[4].CumulativePct)
}

func TestParetoTopCountRoundsUp(t *testing.T) {
	// 20% of 7 customers is 1.4; the top group rounds up to 2.
	invoices := make([]billing.Invoice, 7)
	for i := range invoices {
		invoices[i] = billing.Invoice{CustomerID: string(rune('a' + i)), Total: 700}
	}
	result := Pareto(Snapshot{Invoices: invoices})
	require.Len(t, result.Rows, 7)
	assert.Equal(t, 2, result.TopCount)
	// Two of seven equal customers hold 2/7 of revenue.
	assert.Equal(t, 29, result.TopShare)

	// 20% of 10 customers lands exactly on 2; no rounding involved.
	invoices = make([]billing.Invoice, 10)
	for i := range invoices {
		invoices[i] = billing.Invoice{CustomerID: string(rune('a' + i)), Total: 100}
	}
	assert.Equal(t, 2, Pareto(Snapshot{Invoices: invoices}).TopCount)

	// 20% of 11 customers is 2.2, rounding up to 3.
	invoices = append(invoices, billing.Invoice{CustomerID: "k", Total: 100})
	assert.Equal(t, 3, Pareto(Snapshot{Invoices: invoices}).TopCount)
}

func TestParetoMinimumOneTopCustomer(t *testing.T) {
	snap := Snapshot{
		Invoices: []billing.Invoice{{CustomerID: "c1", Total: 100}},
	}
	result := Pareto(snap)
	assert.Equal(t, 1, result.TopCount)
	assert.Equal(t, 100, result.TopShare)
}

func TestParetoZeroRevenue(t *testing.T) {
	snap := Snapshot{
		Invoices: []billing.Invoice{
			{CustomerID: "c1", Total: 0},
			{CustomerID: "c2", Total: 0},
		},
	}
	result := Pareto(snap)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 0, result.TopShare)
	for _, row := range result.Rows {
		assert.Equal(t, 0, row.CumulativePct)
	}
}

func TestParetoEmpty(t *testing.T) {
	result := Pareto(Snapshot{})
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.TopCount)
	assert.Equal(t, 0, result.TopShare)
}
