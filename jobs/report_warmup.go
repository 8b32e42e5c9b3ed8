package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/eas-platform/eas/internal/jobs"
	"github.com/eas-platform/eas/internal/reporting"
	"github.com/eas-platform/eas/internal/scope"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	warmupScopeTimeout = 20 * time.Second
	warmupWindowDays   = 30
)

// ReportWarmupJob pre-populates the report cache for every active campus, so
// the first dashboard hit after an invalidation does not pay the build cost.
type ReportWarmupJob struct {
	Reports *reporting.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports *reporting.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reports,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks. The warmup runs under a synthetic
// system-wide principal; generated entries land under the "all" scope key and
// the per-campus keys admins resolve to.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = warmupWindowDays
	}
	if len(payload.ReportTypes) == 0 {
		payload.ReportTypes = []string{
			string(reporting.ReportComprehensive),
			string(reporting.ReportSystemOverview),
		}
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("window_days", payload.WindowDays))
	logger.Info("starting report warmup")

	principal := scope.Principal{Role: scope.RoleSuperAdmin}
	now := j.now()
	from := now.AddDate(0, 0, -payload.WindowDays)

	types := make([]reporting.ReportType, 0, len(payload.ReportTypes))
	for _, raw := range payload.ReportTypes {
		typ, err := reporting.ParseReportType(raw)
		if err != nil {
			logger.Warn("skipping unknown report type", slog.String("type", raw))
			continue
		}
		types = append(types, typ)
	}

	warmed := 0
	for _, typ := range types {
		if err := j.warmRequest(ctx, principal, reporting.Request{Type: typ, From: from, To: now}); err != nil {
			resultErr = err
			logger.Error("warm system report", slog.String("type", string(typ)), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	campuses, err := j.Reports.AccessibleCampuses(ctx, principal)
	if err != nil {
		resultErr = err
		logger.Error("load campuses", slog.Any("error", err))
		return resultErr
	}
	for _, c := range campuses {
		req := reporting.Request{Type: reporting.ReportComprehensive, CampusID: &c.ID, From: from, To: now}
		if err := j.warmRequest(ctx, principal, req); err != nil {
			resultErr = err
			logger.Error("warm campus report", slog.Int64("campus_id", c.ID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed report warmup", slog.Int("reports", warmed), slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *ReportWarmupJob) warmRequest(ctx context.Context, p scope.Principal, req reporting.Request) error {
	if j.Reports == nil {
		return nil
	}
	// Tighten each request with a timeout to avoid long-running jobs.
	reqCtx, cancel := context.WithTimeout(ctx, warmupScopeTimeout)
	defer cancel()
	_, err := j.Reports.Generate(reqCtx, p, req)
	return err
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
