// Package pricing turns booking ranges and line items into money.
//
// One formula is canonical: every started week is charged in full, and a flat
// tax is added to the subtotal of each transaction.
package pricing

import (
	"errors"
	"time"

	"velorent/internal/models"

	"github.com/shopspring/decimal"
)

var ErrEmptyRange = errors.New("end date must be after start date")

var (
	hundred  = decimal.NewFromInt(100)
	taxRate  = decimal.NewFromInt(models.TaxRatePercent).Div(hundred)
	weekDays = 7
)

// Weeks returns the number of billable weeks for [start, end), rounding up.
func Weeks(start, end time.Time) (int, error) {
	days := models.DaysBetween(start, end)
	if days <= 0 {
		return 0, ErrEmptyRange
	}
	return (days + weekDays - 1) / weekDays, nil
}

// RentalTotal is Weeks(start, end) times the weekly rate.
func RentalTotal(start, end time.Time, weekly decimal.Decimal) (decimal.Decimal, error) {
	weeks, err := Weeks(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return weekly.Mul(decimal.NewFromInt(int64(weeks))), nil
}

// Tax is the flat transaction tax, rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Round(2)
}

// Totals returns subtotal, tax and total for a set of line items.
func Totals(items []models.LineItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	tax = Tax(subtotal)
	return subtotal, tax, subtotal.Add(tax)
}

// MinorUnits converts an amount to the processor's smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Quote is the checkout view of a rental.
type Quote struct {
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	Days       int             `json:"days"`
	Weeks      int             `json:"weeks"`
	WeeklyRate decimal.Decimal `json:"weeklyRate"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

func NewQuote(start, end time.Time, weekly decimal.Decimal) (*Quote, error) {
	weeks, err := Weeks(start, end)
	if err != nil {
		return nil, err
	}
	subtotal := weekly.Mul(decimal.NewFromInt(int64(weeks)))
	tax := Tax(subtotal)
	return &Quote{
		StartDate:  start,
		EndDate:    end,
		Days:       models.DaysBetween(start, end),
		Weeks:      weeks,
		WeeklyRate: weekly,
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      subtotal.Add(tax),
	}, nil
}
