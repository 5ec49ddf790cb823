package models

import "time"

// SyncTask is a queued outbox job: a Sheets mirror update or a payment reconciliation.
type SyncTask struct {
	ID          int64      `db:"id" json:"id"`
	TaskType    string     `db:"task_type" json:"task_type"`
	BookingID   int64      `db:"booking_id" json:"booking_id"`
	Payload     string     `db:"payload" json:"payload"`
	Status      string     `db:"status" json:"status"`
	RetryCount  int        `db:"retry_count" json:"retry_count"`
	LastError   *string    `db:"last_error" json:"last_error"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at"`
	NextRetryAt *time.Time `db:"next_retry_at" json:"next_retry_at"`
}

const (
	SyncPending   = "pending"
	SyncRetry     = "retry"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

const (
	TaskSheetsUpsert     = "sheets_upsert"
	TaskSheetsDelete     = "sheets_delete"
	TaskReconcilePayment = "reconcile_payment"
)
