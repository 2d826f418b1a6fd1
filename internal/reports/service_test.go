package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

type stubLoader struct {
	snap  Snapshot
	err   error
	calls int
}

func (l *stubLoader) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	l.calls++
	return l.snap, l.err
}

func newTestService(t *testing.T, loader SnapshotLoader) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(loader, cache, 500000)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func testSnapshot(asOf time.Time) Snapshot {
	return Snapshot{
		Customers: []billing.Customer{{ID: "c1", Name: "Asha", CreditLimit: 5000}},
		Invoices: []billing.Invoice{
			{
				ID: "inv_1", BusinessID: "b1", CustomerID: "c1",
				Date: asOf.AddDate(0, 0, -50), DueDate: asOf.AddDate(0, 0, -40),
				Total: 500, Status: billing.StatusPending,
			},
			{
				ID: "inv_2", BusinessID: "b1", CustomerID: "c1",
				Date: asOf.AddDate(0, 0, -15), DueDate: asOf.AddDate(0, 0, -10),
				Total: 1000, Status: billing.StatusPaid,
				Payments: []billing.Payment{{Date: asOf.AddDate(0, 0, -10), Amount: 1000, Method: "UPI"}},
			},
		},
	}
}

func TestGetAgingCaches(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	loader := &stubLoader{snap: testSnapshot(asOf)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	buckets, err := svc.GetAging(ctx, Filter{BusinessID: "b1"}, asOf)
	if err != nil {
		t.Fatalf("aging error: %v", err)
	}
	if buckets["31-60"] != 500 {
		t.Fatalf("expected 500 in 31-60, got %#v", buckets)
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.calls)
	}

	// Second call should hit the cache.
	if _, err := svc.GetAging(ctx, Filter{BusinessID: "b1"}, asOf); err != nil {
		t.Fatalf("aging cache error: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cached result, loader called %d times", loader.calls)
	}

	// Bumping recomputes.
	if err := svc.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if _, err := svc.GetAging(ctx, Filter{BusinessID: "b1"}, asOf); err != nil {
		t.Fatalf("aging after bump: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader to refresh, calls %d", loader.calls)
	}
}

func TestGetSummaryAndLedger(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	loader := &stubLoader{snap: testSnapshot(asOf)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()
	svc.WithNow(func() time.Time { return asOf })

	ctx := context.Background()
	summary, err := svc.GetSummary(ctx, Filter{})
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	if summary.TotalInvoiced != 1500 || summary.Collected != 1000 || summary.Outstanding != 500 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rows, err := svc.GetLedger(ctx, Filter{})
	if err != nil {
		t.Fatalf("ledger error: %v", err)
	}
	if len(rows) != 1 || rows[0].Outstanding != 500 {
		t.Fatalf("unexpected ledger rows %#v", rows)
	}
	if rows[0].CreditUsagePct != 10 {
		t.Fatalf("expected 10%% credit usage, got %d", rows[0].CreditUsagePct)
	}
}

func TestGetForecastDistinctFromRisk(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	loader := &stubLoader{snap: testSnapshot(asOf)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()
	svc.WithNow(func() time.Time { return asOf })

	ctx := context.Background()
	fc, err := svc.GetForecast(ctx, Filter{})
	if err != nil {
		t.Fatalf("forecast error: %v", err)
	}
	// Single revenue month: no projection, no error.
	if len(fc.Actual) != 1 || len(fc.Forecast) != 0 {
		t.Fatalf("unexpected forecast %+v", fc)
	}

	risk, err := svc.GetRisk(ctx, Filter{})
	if err != nil {
		t.Fatalf("risk error: %v", err)
	}
	if len(risk) != 1 {
		t.Fatalf("expected 1 risk row, got %d", len(risk))
	}
	// inv_1 is 40 days past due and unpaid; inv_2 paid on time.
	if risk[0].AvgLateDays != 40 {
		t.Fatalf("expected avg late 40, got %d", risk[0].AvgLateDays)
	}

	dso, err := svc.GetDSO(ctx, Filter{})
	if err != nil {
		t.Fatalf("dso error: %v", err)
	}
	// DSO is the invoice-to-due window (10 and 5 days), not the late delay.
	if dso != 7.5 {
		t.Fatalf("expected dso 7.5, got %v", dso)
	}
}

func TestServiceWithoutCache(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	loader := &stubLoader{snap: testSnapshot(asOf)}
	svc := NewService(loader, nil, 500000)

	ctx := context.Background()
	if _, err := svc.GetSummary(ctx, Filter{}); err != nil {
		t.Fatalf("summary without cache: %v", err)
	}
	if _, err := svc.GetCommission(ctx, Filter{}); err != nil {
		t.Fatalf("commission without cache: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected a loader call per request, got %d", loader.calls)
	}
}

func TestGetStatusBreakdownEmptySnapshot(t *testing.T) {
	loader := &stubLoader{}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	counts, err := svc.GetStatusBreakdown(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if counts["Paid"] != 0 || counts["Pending"] != 0 {
		t.Fatalf("unexpected counts %#v", counts)
	}
}
