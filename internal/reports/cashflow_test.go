package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

func TestCashflowTimeline(t *testing.T) {
	d1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	invoices := []billing.Invoice{
		{Payments: []billing.Payment{
			{Date: d1, Amount: 100},
			{Date: d1, Amount: 50},
			{Date: d2, Amount: 75},
		}},
	}
	expenses := []billing.Expense{
		{Date: d2, Amount: 40},
		{Date: time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC), Amount: 10},
	}

	points := CashflowTimeline(invoices, expenses)
	require.Len(t, points, 3)
	assert.Equal(t, CashflowPoint{Day: "2025-05-01", Income: 150}, points[0])
	assert.Equal(t, CashflowPoint{Day: "2025-05-03", Income: 75, Expense: 40}, points[1])
	assert.Equal(t, CashflowPoint{Day: "2025-05-04", Expense: 10}, points[2])
}

func TestCashflowTimelineEmpty(t *testing.T) {
	assert.Empty(t, CashflowTimeline(nil, nil))
}

func TestTopCategoryTrend(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Services: []billing.Service{
			{ID: "s1", Name: "Design"},
			{ID: "s2", Name: "Hosting"},
			{ID: "s3", Name: "Audit"},
		},
		Invoices: []billing.Invoice{
			{Date: jan, Items: []billing.LineItem{
				{ServiceID: "s1", Amount: 500},
				{ServiceID: "s2", Amount: 100},
			}},
			{Date: feb, Items: []billing.LineItem{
				{ServiceID: "s1", Amount: 700},
				{ServiceID: "s3", Amount: 50},
			}},
		},
	}

	trend := TopCategoryTrend(snap, 2)
	assert.Equal(t, []string{"2025-01", "2025-02"}, trend.Months)
	require.Equal(t, []string{"Design", "Hosting"}, trend.Categories)
	assert.Equal(t, []float64{500, 700}, trend.Series["Design"])
	assert.Equal(t, []float64{100, 0}, trend.Series["Hosting"])
}

func TestTopCategoryTrendUnknownServiceKeepsID(t *testing.T) {
	snap := Snapshot{
		Invoices: []billing.Invoice{
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Items: []billing.LineItem{
				{ServiceID: "svc_missing", Amount: 10},
			}},
		},
	}
	trend := TopCategoryTrend(snap, 5)
	require.Len(t, trend.Categories, 1)
	assert.Equal(t, "svc_missing", trend.Categories[0])
}
