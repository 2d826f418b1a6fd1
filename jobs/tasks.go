package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-computes the dashboard reports into the cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskReportsInvalidate drops all cached reports after bulk data changes.
	TaskReportsInvalidate = "reports:invalidate"
)

// ReportsWarmupPayload scopes a warmup run. An empty BusinessID warms the
// global view plus every business scope.
type ReportsWarmupPayload struct {
	BusinessID string `json:"businessId,omitempty"`
}

// NewReportsWarmupTask constructs a warmup task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewReportsInvalidateTask constructs an invalidation task.
func NewReportsInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskReportsInvalidate, nil)
}
