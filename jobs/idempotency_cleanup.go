package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/textile-erp/internal/jobs"
)

// KeyPurger deletes idempotency keys older than a retention window.
type KeyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges expired idempotency keys.
type IdempotencyCleanupJob struct {
	Store     KeyPurger
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob constructs the job. Retention is used when the task
// payload carries none.
func NewIdempotencyCleanupJob(store KeyPurger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle executes the cleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := j.Retention
	if payload.Retention != "" {
		parsed, err := time.ParseDuration(payload.Retention)
		if err != nil || parsed <= 0 {
			return asynq.SkipRetry
		}
		retention = parsed
	}
	if retention <= 0 {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	purged, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		logger.Error("purge idempotency keys", slog.String("job", TaskIdempotencyCleanup), slog.Any("error", err))
		return tracker.End(err)
	}
	metrics.AddPurged(purged)
	logger.Info("purged idempotency keys",
		slog.String("job", TaskIdempotencyCleanup),
		slog.Int64("purged", purged),
		slog.Duration("retention", retention))
	return tracker.End(nil)
}
