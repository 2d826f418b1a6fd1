package jobs

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerkite/ledgerkite/internal/billing"
	jobmetrics "github.com/ledgerkite/ledgerkite/internal/jobs"
	"github.com/ledgerkite/ledgerkite/internal/reports"
)

type countingLoader struct {
	snap  reports.Snapshot
	calls int
}

func (l *countingLoader) LoadSnapshot(ctx context.Context) (reports.Snapshot, error) {
	l.calls++
	return l.snap, nil
}

type staticScopes struct{ ids []string }

func (s staticScopes) ListBusinessIDs(ctx context.Context) ([]string, error) {
	return s.ids, nil
}

func warmupSnapshot() reports.Snapshot {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return reports.Snapshot{
		Customers: []billing.Customer{{ID: "c1", Name: "Asha"}},
		Invoices: []billing.Invoice{
			{
				ID: "inv_1", BusinessID: "b1", CustomerID: "c1",
				Date: asOf.AddDate(0, 0, -20), DueDate: asOf.AddDate(0, 0, -10),
				Total: 1000, Status: billing.StatusPaid,
				Payments: []billing.Payment{{Date: asOf.AddDate(0, 0, -10), Amount: 1000, Method: "UPI"}},
			},
		},
	}
}

func newWarmupFixture(t *testing.T) (*ReportsWarmupJob, *countingLoader, *reports.Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := reports.NewCache(client, time.Minute)
	loader := &countingLoader{snap: warmupSnapshot()}
	svc := reports.NewService(loader, cache, 500000)
	job := NewReportsWarmupJob(svc, staticScopes{ids: []string{"b1"}}, nil, jobmetrics.NewMetrics(nil))
	return job, loader, svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestReportsWarmupPrimesCache(t *testing.T) {
	job, loader, svc, cleanup := newWarmupFixture(t)
	defer cleanup()

	task, err := NewReportsWarmupTask(ReportsWarmupPayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}
	if loader.calls == 0 {
		t.Fatal("expected warmup to compute reports")
	}

	// The dashboard widgets should now resolve without touching the loader.
	before := loader.calls
	if _, err := svc.GetSummary(context.Background(), reports.Filter{}); err != nil {
		t.Fatalf("warm summary: %v", err)
	}
	if _, err := svc.GetSummary(context.Background(), reports.Filter{BusinessID: "b1"}); err != nil {
		t.Fatalf("warm scoped summary: %v", err)
	}
	if loader.calls != before {
		t.Fatalf("expected warm cache hits, loader went %d -> %d", before, loader.calls)
	}
}

func TestReportsWarmupScopedPayload(t *testing.T) {
	job, loader, _, cleanup := newWarmupFixture(t)
	defer cleanup()

	task, err := NewReportsWarmupTask(ReportsWarmupPayload{BusinessID: "b1"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}
	if loader.calls == 0 {
		t.Fatal("expected scoped warmup to compute reports")
	}
}

func TestReportsWarmupMalformedPayloadSkipsRetry(t *testing.T) {
	job, _, _, cleanup := newWarmupFixture(t)
	defer cleanup()

	err := job.Handle(context.Background(), asynq.NewTask(TaskReportsWarmup, []byte("{bad")))
	if err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestReportsInvalidateBumpsVersion(t *testing.T) {
	_, loader, svc, cleanup := newWarmupFixture(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetSummary(ctx, reports.Filter{}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	before := loader.calls

	inval := NewReportsInvalidateJob(svc, nil, jobmetrics.NewMetrics(nil))
	if err := inval.Handle(ctx, NewReportsInvalidateTask()); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	if _, err := svc.GetSummary(ctx, reports.Filter{}); err != nil {
		t.Fatalf("summary after bump: %v", err)
	}
	if loader.calls != before+1 {
		t.Fatalf("expected recompute after bump, calls %d -> %d", before, loader.calls)
	}
}
