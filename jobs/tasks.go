package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-populates the report cache for every campus.
	TaskReportWarmup = "reports:warmup"
	// TaskCacheBump invalidates cached reports after attendance changes.
	TaskCacheBump = "reports:bump"
)

// ReportWarmupPayload controls which report types and window the warmup covers.
type ReportWarmupPayload struct {
	ReportTypes []string `json:"report_types,omitempty"`
	WindowDays  int      `json:"window_days,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task for report cache warmup.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// NewCacheBumpTask constructs an Asynq task invalidating the report cache.
func NewCacheBumpTask() *asynq.Task {
	return asynq.NewTask(TaskCacheBump, nil)
}
