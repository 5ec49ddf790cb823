package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"velorent/internal/models"
)

const agreementColumns = `id, booking_id, customer_id, customer_name, customer_email, product_id, product_name,
	product_brand, start_date, end_date, weeks, weekly_rate, total_price, document_url, document_path, status, created_at`

// CreateAgreement stores the agreement; a booking can only have one.
func (db *DB) CreateAgreement(ctx context.Context, a *models.RentalAgreement) error {
	query := `INSERT INTO rental_agreements (
				booking_id, customer_id, customer_name, customer_email, product_id, product_name, product_brand,
				start_date, end_date, weeks, weekly_rate, total_price, document_url, document_path, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		a.BookingID, a.CustomerID, a.CustomerName, a.CustomerEmail, a.ProductID, a.ProductName, a.ProductBrand,
		a.StartDate.Format(models.DateLayout), a.EndDate.Format(models.DateLayout),
		a.Weeks, a.WeeklyRate, a.TotalPrice, a.DocumentURL, a.DocumentPath, a.Status, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create agreement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

func (db *DB) GetAgreementByBooking(ctx context.Context, bookingID int64) (*models.RentalAgreement, error) {
	var a models.RentalAgreement
	err := db.GetContext(ctx, &a, `SELECT `+agreementColumns+` FROM rental_agreements WHERE booking_id = ?`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agreement: %w", err)
	}
	return &a, nil
}

func (db *DB) UpdateAgreementStatus(ctx context.Context, bookingID int64, status string) error {
	_, err := db.ExecContext(ctx, `UPDATE rental_agreements SET status = ? WHERE booking_id = ?`, status, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update agreement status: %w", err)
	}
	return nil
}
