package worker

import (
	"context"
	"math"
	"time"

	"velorent/internal/domain"
	"velorent/internal/metrics"
	"velorent/internal/models"

	"github.com/rs/zerolog"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries == 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = 2 * time.Second
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = time.Minute
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = 2
	}
	return r
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// settle schedules a retry for a failed task, or marks it failed once retries are exhausted.
// It reports whether the task is now failed for good.
func settle(ctx context.Context, db domain.SyncQueueRepository, policy RetryPolicy, task *models.SyncTask, cause error, logger *zerolog.Logger) bool {
	attempt := task.RetryCount + 1
	if attempt >= policy.MaxRetries {
		if err := db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncFailed, cause.Error(), nil); err != nil {
			logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
		}
		logger.Error().Err(cause).Int64("task_id", task.ID).Str("task_type", task.TaskType).Msg("task failed permanently")
		metrics.IncSyncTask(task.TaskType, models.SyncFailed)
		return true
	}

	nextTime := time.Now().Add(policy.NextDelay(attempt))
	if err := db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncRetry, cause.Error(), &nextTime); err != nil {
		logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
	logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", nextTime).Msg("task scheduled for retry")
	metrics.IncSyncTask(task.TaskType, models.SyncRetry)
	return false
}

func complete(ctx context.Context, db domain.SyncQueueRepository, task *models.SyncTask, logger *zerolog.Logger) {
	if err := db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncCompleted, "", nil); err != nil {
		logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed")
		return
	}
	metrics.IncSyncTask(task.TaskType, models.SyncCompleted)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
