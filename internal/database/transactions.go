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

const transactionColumns = `id, buyer_id, vendor_id, items, payment_result, subtotal, tax, total,
	is_paid, paid_at, type, booking_id, created_at`

// RecordPayment applies a successful charge: it confirms the rental booking (when present)
// by version, takes purchased units out of stock and writes the transaction, atomically.
func (db *DB) RecordPayment(ctx context.Context, txn *models.Transaction, bookingVersion int64) error {
	if txn.PaymentResult.ChargeID == "" {
		return errors.New("payment result has no charge id")
	}
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if txn.BookingID != nil {
			booking, err := getBooking(ctx, tx, *txn.BookingID)
			if err != nil {
				return err
			}
			if booking.Status != models.StatusPending {
				return ErrConcurrentModification
			}
			if err := updateBookingStatus(ctx, tx, booking.ID, bookingVersion, models.StatusConfirmed); err != nil {
				return err
			}
		}

		for _, item := range txn.Items {
			if item.IsRental {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE products SET count_in_stock = MAX(count_in_stock - ?, 0), updated_at = ? WHERE id = ?`,
				item.Quantity, time.Now().UTC(), item.ProductID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock of product %d: %w", item.ProductID, err)
			}
		}

		return insertTransaction(ctx, tx, txn)
	})
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, txn *models.Transaction) error {
	query := `INSERT INTO transactions (
				buyer_id, vendor_id, items, payment_result, charge_id, subtotal, tax, total,
				is_paid, paid_at, type, booking_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	if txn.IsPaid && txn.PaidAt == nil {
		txn.PaidAt = &now
	}
	result, err := tx.ExecContext(ctx, query,
		txn.BuyerID, txn.VendorID, txn.Items, txn.PaymentResult, txn.PaymentResult.ChargeID,
		txn.Subtotal, txn.Tax, txn.Total, txn.IsPaid, txn.PaidAt, txn.Type, txn.BookingID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	txn.ID = id
	txn.CreatedAt = now
	return nil
}

func (db *DB) GetTransactionByCharge(ctx context.Context, chargeID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := db.GetContext(ctx, &txn, `SELECT `+transactionColumns+` FROM transactions WHERE charge_id = ?`, chargeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// ListTransactions returns the buyer's transactions, or all of them when buyerID is zero.
func (db *DB) ListTransactions(ctx context.Context, buyerID int64) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []interface{}
	if buyerID != 0 {
		query += ` WHERE buyer_id = ?`
		args = append(args, buyerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	txns := []*models.Transaction{}
	if err := db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
