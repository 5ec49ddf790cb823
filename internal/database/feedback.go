package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"velorent/internal/models"
)

const feedbackColumns = `id, user_id, user_name, type, subject, message, status, priority, category,
	assigned_to, response_message, responded_by, responded_at, created_at, updated_at`

func (db *DB) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	query := `INSERT INTO feedback (
				user_id, user_name, type, subject, message, status, priority, category, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		f.UserID, f.UserName, f.Type, f.Subject, f.Message, f.Status, f.Priority, f.Category, now, now)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

func (db *DB) GetFeedback(ctx context.Context, id int64) (*models.Feedback, error) {
	var f models.Feedback
	err := db.GetContext(ctx, &f, `SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback %d: %w", id, err)
	}
	return &f, nil
}

func (db *DB) ListFeedback(ctx context.Context, filter models.FeedbackFilter) ([]*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE 1 = 1`
	var args []interface{}
	if filter.UserID != 0 {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	items := []*models.Feedback{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

func (db *DB) UpdateFeedback(ctx context.Context, id int64, upd models.FeedbackUpdate) error {
	query := `UPDATE feedback SET
				status = COALESCE(?, status),
				priority = COALESCE(?, priority),
				assigned_to = COALESCE(?, assigned_to),
				updated_at = ?
			WHERE id = ?`
	result, err := db.ExecContext(ctx, query, upd.Status, upd.Priority, upd.AssignedTo, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RespondToFeedback records the staff answer and moves the ticket to status.
func (db *DB) RespondToFeedback(ctx context.Context, id, responderID int64, message, status string) error {
	now := time.Now().UTC()
	query := `UPDATE feedback SET response_message = ?, responded_by = ?, responded_at = ?, status = ?, updated_at = ?
			WHERE id = ?`
	result, err := db.ExecContext(ctx, query, message, responderID, now, status, now, id)
	if err != nil {
		return fmt.Errorf("failed to respond to feedback: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteFeedback(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
