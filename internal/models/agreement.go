package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalAgreement snapshots a booking's terms at the time the document is generated.
type RentalAgreement struct {
	ID            int64           `db:"id" json:"id"`
	BookingID     int64           `db:"booking_id" json:"bookingId"`
	CustomerID    int64           `db:"customer_id" json:"customerId"`
	CustomerName  string          `db:"customer_name" json:"customerName"`
	CustomerEmail string          `db:"customer_email" json:"customerEmail"`
	ProductID     int64           `db:"product_id" json:"productId"`
	ProductName   string          `db:"product_name" json:"productName"`
	ProductBrand  string          `db:"product_brand" json:"productBrand"`
	StartDate     time.Time       `db:"start_date" json:"startDate"`
	EndDate       time.Time       `db:"end_date" json:"endDate"`
	Weeks         int             `db:"weeks" json:"weeks"`
	WeeklyRate    decimal.Decimal `db:"weekly_rate" json:"weeklyRate"`
	TotalPrice    decimal.Decimal `db:"total_price" json:"totalPrice"`
	DocumentURL   string          `db:"document_url" json:"documentUrl"`
	DocumentPath  string          `db:"document_path" json:"-"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}
