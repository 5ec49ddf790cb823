package worker

import (
	"context"
	"time"

	"velorent/internal/domain"
	"velorent/internal/models"

	"github.com/rs/zerolog"
)

// Reconciler finishes the local writes of a payment whose charge already succeeded.
type Reconciler interface {
	ReconcilePayment(ctx context.Context, payload string) error
}

// ReconcileWorker drains reconcile_payment tasks from the sync queue.
type ReconcileWorker struct {
	db           domain.SyncQueueRepository
	reconciler   Reconciler
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

func NewReconcileWorker(db domain.SyncQueueRepository, reconciler Reconciler, retry RetryPolicy, logger *zerolog.Logger) *ReconcileWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 10
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 10 * time.Minute
	}
	return &ReconcileWorker{
		db:           db,
		reconciler:   reconciler,
		retryPolicy:  retry.withDefaults(),
		pollInterval: 5 * time.Second,
		batchSize:    10,
		logger:       logger,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("reconcile_worker: started")
	defer w.logger.Info().Msg("reconcile_worker: stopped")

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error().Err(err).Msg("reconcile_worker: fetch pending")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

// RunOnce processes the tasks that are currently due.
func (w *ReconcileWorker) RunOnce(ctx context.Context) error {
	tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize, models.TaskReconcilePayment)
	if err != nil {
		return err
	}
	for i := range tasks {
		task := &tasks[i]
		if err := w.reconciler.ReconcilePayment(ctx, task.Payload); err != nil {
			settle(ctx, w.db, w.retryPolicy, task, err, w.logger)
			continue
		}
		complete(ctx, w.db, task, w.logger)
	}
	return nil
}
