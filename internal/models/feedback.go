package models

import "time"

type Feedback struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"userId"`
	UserName    string     `db:"user_name" json:"userName"`
	Type        string     `db:"type" json:"type"`
	Subject     string     `db:"subject" json:"subject"`
	Message     string     `db:"message" json:"message"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	Category    string     `db:"category" json:"category"`
	AssignedTo  *int64     `db:"assigned_to" json:"assignedTo,omitempty"`
	Response    *string    `db:"response_message" json:"response,omitempty"`
	RespondedBy *int64     `db:"responded_by" json:"respondedBy,omitempty"`
	RespondedAt *time.Time `db:"responded_at" json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// FeedbackFilter narrows feedback listings; zero values match everything.
type FeedbackFilter struct {
	UserID   int64
	Status   string
	Category string
}

// FeedbackUpdate carries staff edits; nil fields are left untouched.
type FeedbackUpdate struct {
	Status     *string
	Priority   *string
	AssignedTo *int64
}
