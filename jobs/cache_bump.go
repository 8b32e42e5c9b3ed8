package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/eas-platform/eas/internal/jobs"
	"github.com/eas-platform/eas/internal/reporting"
)

// CacheBumpJob invalidates cached reports after attendance mutations land.
// Peer instances pick the bump up over the invalidation channel.
type CacheBumpJob struct {
	Cache   *reporting.Cache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheBumpJob wires dependencies for the invalidation handler.
func NewCacheBumpJob(cache *reporting.Cache, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheBumpJob {
	return &CacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes cache bump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("cache bump: handler not configured")
	}
	tracker := j.metrics().Track(TaskCacheBump)
	err := j.Cache.Bump(ctx)
	if err != nil {
		j.logger().Error("bump report cache", slog.Any("error", err))
	} else {
		j.logger().Info("report cache invalidated")
	}
	return tracker.End(err)
}

func (j *CacheBumpJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheBump))
	}
	return slog.Default().With(slog.String("job", TaskCacheBump))
}

func (j *CacheBumpJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
