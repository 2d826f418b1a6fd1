package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerkite/ledgerkite/internal/jobs"
	"github.com/ledgerkite/ledgerkite/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// BusinessLister discovers the scopes a warmup run covers.
type BusinessLister interface {
	ListBusinessIDs(ctx context.Context) ([]string, error)
}

// ReportsWarmupJob pre-populates the report cache so dashboard requests hit
// warm entries.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Scopes  BusinessLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(svc *reports.Service, scopes BusinessLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: svc,
		Scopes:  scopes,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReportsWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	logger.Info("starting reports warmup", slog.String("business_id", payload.BusinessID))

	scopes := []string{payload.BusinessID}
	if payload.BusinessID == "" && j.Scopes != nil {
		ids, listErr := j.Scopes.ListBusinessIDs(ctx)
		if listErr != nil {
			logger.Error("load warmup scopes", slog.Any("error", listErr))
			return listErr
		}
		scopes = append(scopes, ids...)
	}

	start := j.now()
	for _, id := range scopes {
		if warmErr := j.warmScope(ctx, id); warmErr != nil {
			logger.Error("warm scope", slog.String("business_id", id), slog.Any("error", warmErr))
			return warmErr
		}
	}

	logger.Info("completed reports warmup", slog.Int("scopes", len(scopes)), slog.Duration("duration", time.Since(start)))
	return nil
}

// warmScope primes the widgets the dashboard requests first.
func (j *ReportsWarmupJob) warmScope(ctx context.Context, businessID string) error {
	scopeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	f := reports.Filter{BusinessID: businessID}
	if _, err := j.Reports.GetSummary(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetAging(scopeCtx, f, time.Time{}); err != nil {
		return err
	}
	if _, err := j.Reports.GetDSO(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetStatusBreakdown(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetCashflow(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetForecast(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetRisk(scopeCtx, f); err != nil {
		return err
	}
	if _, err := j.Reports.GetBurn(scopeCtx, f); err != nil {
		return err
	}
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
