package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"velorent/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, user_id, user_name, user_email, product_id, product_name, start_date, end_date,
	total_price, status, version, created_at, updated_at`

func (db *DB) CheckAvailability(ctx context.Context, productID int64, start, end time.Time) (bool, error) {
	product, err := db.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	bookings, err := overlappingBookings(ctx, db.DB, productID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return peakUsage(bookings, start, end) < product.CountInStock, nil
}

// CreateBookingWithLock checks capacity and inserts the booking in one immediate transaction,
// so two overlapping requests for the last unit cannot both succeed.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	if !booking.EndDate.After(booking.StartDate) {
		return ErrInvalidRange
	}
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		product, err := getProduct(ctx, tx, booking.ProductID)
		if err != nil {
			return err
		}

		existing, err := overlappingBookings(ctx, tx, booking.ProductID, booking.StartDate, booking.EndDate)
		if err != nil {
			return fmt.Errorf("failed to check availability in tx: %w", err)
		}
		if peakUsage(existing, booking.StartDate, booking.EndDate) >= product.CountInStock {
			return ErrNotAvailable
		}

		if booking.Status == "" {
			booking.Status = models.StatusPending
		}
		if booking.ProductName == "" {
			booking.ProductName = product.Name
		}

		query := `INSERT INTO bookings (
					user_id, user_name, user_email, product_id, product_name,
					start_date, end_date, total_price, status, version, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`
		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx, query,
			booking.UserID,
			booking.UserName,
			booking.UserEmail,
			booking.ProductID,
			booking.ProductName,
			booking.StartDate.Format(models.DateLayout),
			booking.EndDate.Format(models.DateLayout),
			booking.TotalPrice,
			booking.Status,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking in tx: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}
		booking.ID = id
		booking.Version = 1
		booking.CreatedAt = now
		booking.UpdatedAt = now
		return nil
	})
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return getBooking(ctx, db.DB, id)
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Booking, error) {
	var b models.Booking
	err := sqlx.GetContext(ctx, q, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return &b, nil
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	err := db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY start_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1 = 1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.ProductID != 0 {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.PageSize > 0 {
		page, size := normalizePage(filter.Page, filter.PageSize)
		query += ` LIMIT ? OFFSET ?`
		args = append(args, size, (page-1)*size)
	}

	bookings := []*models.Booking{}
	if err := db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetConfirmedBookingsSince feeds the turnover report.
func (db *DB) GetConfirmedBookingsSince(ctx context.Context, since time.Time) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	err := db.SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? AND created_at >= ? ORDER BY created_at`,
		models.StatusConfirmed, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmed bookings: %w", err)
	}
	return bookings, nil
}

// LastBookedAtByProduct returns, per product, when its latest confirmed or completed
// booking was created. Products never booked are absent.
func (db *DB) LastBookedAtByProduct(ctx context.Context) (map[int64]time.Time, error) {
	var rows []struct {
		ProductID int64     `db:"product_id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := db.SelectContext(ctx, &rows,
		`SELECT b.product_id, b.created_at FROM bookings b
		WHERE b.status IN (?, ?) AND b.created_at = (
			SELECT MAX(l.created_at) FROM bookings l
			WHERE l.product_id = b.product_id AND l.status IN (?, ?))`,
		models.StatusConfirmed, models.StatusCompleted, models.StatusConfirmed, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get last booking dates: %w", err)
	}

	last := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		last[r.ProductID] = r.CreatedAt
	}
	return last, nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	return updateBookingStatus(ctx, db.DB, id, fromVersion, status)
}

func updateBookingStatus(ctx context.Context, e sqlx.ExecerContext, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := e.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAvailabilityForPeriod returns one entry per day starting at start.
func (db *DB) GetAvailabilityForPeriod(ctx context.Context, productID int64, start time.Time, days int) ([]*models.Availability, error) {
	product, err := db.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	start = models.TruncateDay(start)
	end := start.AddDate(0, 0, days)

	bookings, err := overlappingBookings(ctx, db.DB, productID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	out := make([]*models.Availability, 0, days)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		booked := usageOn(bookings, day)
		available := product.CountInStock - booked
		if available < 0 {
			available = 0
		}
		out = append(out, &models.Availability{
			Date:      day,
			ProductID: productID,
			Booked:    booked,
			Available: available,
		})
	}
	return out, nil
}

// overlappingBookings loads bookings that hold inventory somewhere in [start, end).
func overlappingBookings(ctx context.Context, q sqlx.QueryerContext, productID int64, start, end time.Time) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings
			WHERE product_id = ? AND start_date < ? AND end_date > ? AND status IN (?, ?)`
	err := sqlx.SelectContext(ctx, q, &bookings, query,
		productID,
		end.Format(models.DateLayout),
		start.Format(models.DateLayout),
		models.StatusPending,
		models.StatusConfirmed,
	)
	return bookings, err
}

// peakUsage is the highest number of bookings covering any single day of [start, end).
func peakUsage(bookings []*models.Booking, start, end time.Time) int64 {
	var peak int64
	for day := models.TruncateDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		if n := usageOn(bookings, day); n > peak {
			peak = n
		}
	}
	return peak
}

func usageOn(bookings []*models.Booking, day time.Time) int64 {
	var n int64
	for _, b := range bookings {
		if b.BlocksInventory() && b.Covers(day) {
			n++
		}
	}
	return n
}
