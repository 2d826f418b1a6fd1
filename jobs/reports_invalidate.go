package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerkite/ledgerkite/internal/jobs"
	"github.com/ledgerkite/ledgerkite/internal/reports"
)

// ReportsInvalidateJob drops every cached report in one version bump.
type ReportsInvalidateJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportsInvalidateJob wires dependencies for the invalidation handler.
func NewReportsInvalidateJob(svc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsInvalidateJob {
	return &ReportsInvalidateJob{Reports: svc, Logger: logger, Metrics: metrics}
}

// Handle processes report invalidation tasks.
func (j *ReportsInvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports invalidate: handler not configured")
	}
	tracker := j.metrics().Track(TaskReportsInvalidate)
	err := j.Reports.Bump(ctx)
	if err == nil {
		j.metrics().AddBump()
	} else {
		j.logger().Error("bump report cache", slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *ReportsInvalidateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsInvalidate))
	}
	return slog.Default().With(slog.String("job", TaskReportsInvalidate))
}

func (j *ReportsInvalidateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
