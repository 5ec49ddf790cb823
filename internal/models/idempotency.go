package models

import "time"

// PaymentAttempt binds a client idempotency key to the charge it produced.
type PaymentAttempt struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	ChargeID  string    `json:"charge_id"`
	BookingID int64     `json:"booking_id,omitempty"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
