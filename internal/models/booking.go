package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking reserves one unit of a product for the half-open day range [StartDate, EndDate).
type Booking struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"userId"`
	UserName    string          `db:"user_name" json:"userName"`
	UserEmail   string          `db:"user_email" json:"userEmail"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	StartDate   time.Time       `db:"start_date" json:"startDate"`
	EndDate     time.Time       `db:"end_date" json:"endDate"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"totalPrice"`
	Status      string          `db:"status" json:"status"`
	Version     int64           `db:"version" json:"version"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Days returns the number of booked days.
func (b *Booking) Days() int {
	return DaysBetween(b.StartDate, b.EndDate)
}

// Overlaps reports whether the booking intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

// Covers reports whether the given day falls inside the booking.
func (b *Booking) Covers(day time.Time) bool {
	return !day.Before(b.StartDate) && day.Before(b.EndDate)
}

// BlocksInventory reports whether the booking still holds a unit.
func (b *Booking) BlocksInventory() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Availability is one calendar day of a product.
type Availability struct {
	Date      time.Time `json:"date"`
	ProductID int64     `json:"productId"`
	Booked    int64     `json:"booked"`
	Available int64     `json:"available"`
}

// TruncateDay normalizes a timestamp to midnight UTC of its calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(TruncateDay(end).Sub(TruncateDay(start)).Hours() / 24)
}

// BookingFilter narrows the admin booking list.
type BookingFilter struct {
	Status    string
	ProductID int64
	Page      int
	PageSize  int
}
