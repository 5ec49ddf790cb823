package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	IsRental  bool            `json:"isRental"`
}

// LineTotal is quantity times unit price.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// LineItems is stored as a JSON column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *LineItems) Scan(src any) error {
	return scanJSON(src, l)
}

// PaymentResult is the processor metadata recorded with a transaction.
type PaymentResult struct {
	ChargeID string `json:"chargeId"`
	Status   string `json:"status"`
	Email    string `json:"email,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (p PaymentResult) Value() (driver.Value, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (p *PaymentResult) Scan(src any) error {
	return scanJSON(src, p)
}

type Transaction struct {
	ID            int64           `db:"id" json:"id"`
	BuyerID       int64           `db:"buyer_id" json:"buyerId"`
	VendorID      int64           `db:"vendor_id" json:"vendorId"`
	Items         LineItems       `db:"items" json:"items"`
	PaymentResult PaymentResult   `db:"payment_result" json:"paymentResult"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax" json:"tax"`
	Total         decimal.Decimal `db:"total" json:"total"`
	IsPaid        bool            `db:"is_paid" json:"isPaid"`
	PaidAt        *time.Time      `db:"paid_at" json:"paidAt,omitempty"`
	Type          string          `db:"type" json:"type"`
	BookingID     *int64          `db:"booking_id" json:"bookingId,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		return json.Unmarshal(v, dst)
	default:
		return errors.New("unsupported json column type")
	}
}
