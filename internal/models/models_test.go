package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBookingRangeHelpers(t *testing.T) {
	b := &Booking{StartDate: day("2026-03-02"), EndDate: day("2026-03-12"), Status: StatusPending}

	t.Run("Days", func(t *testing.T) {
		assert.Equal(t, 10, b.Days())
	})

	t.Run("Overlaps", func(t *testing.T) {
		assert.True(t, b.Overlaps(day("2026-03-11"), day("2026-03-20")))
		assert.True(t, b.Overlaps(day("2026-02-01"), day("2026-03-03")))
		assert.True(t, b.Overlaps(day("2026-03-04"), day("2026-03-05")))
		// half-open: touching ranges do not overlap
		assert.False(t, b.Overlaps(day("2026-03-12"), day("2026-03-15")))
		assert.False(t, b.Overlaps(day("2026-02-25"), day("2026-03-02")))
	})

	t.Run("Covers", func(t *testing.T) {
		assert.True(t, b.Covers(day("2026-03-02")))
		assert.True(t, b.Covers(day("2026-03-11")))
		assert.False(t, b.Covers(day("2026-03-12")))
	})

	t.Run("BlocksInventory", func(t *testing.T) {
		assert.True(t, b.BlocksInventory())
		assert.True(t, (&Booking{Status: StatusConfirmed}).BlocksInventory())
		assert.False(t, (&Booking{Status: StatusCancelled}).BlocksInventory())
		assert.False(t, (&Booking{Status: StatusCompleted}).BlocksInventory())
	})
}

func TestTruncateDay(t *testing.T) {
	ts := time.Date(2026, 5, 17, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, day("2026-05-17"), TruncateDay(ts))
	assert.Equal(t, 1, DaysBetween(ts, day("2026-05-18")))
}

func TestLineItemsColumn(t *testing.T) {
	items := LineItems{{ProductID: 7, Name: "Cargo bike", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}}

	raw, err := items.Value()
	require.NoError(t, err)

	var decoded LineItems
	require.NoError(t, decoded.Scan(raw))
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].LineTotal().Equal(decimal.RequireFromString("25")))

	var empty LineItems
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, decoded.Scan(42))
}

func TestPrincipal(t *testing.T) {
	admin := Principal{UserID: 1, Role: RoleAdmin}
	vendor := Principal{UserID: 2, Role: RoleVendor}
	user := Principal{UserID: 3, Role: RoleUser}

	assert.True(t, admin.CanManageProduct(99))
	assert.True(t, vendor.CanManageProduct(2))
	assert.False(t, vendor.CanManageProduct(5))
	assert.False(t, user.CanManageProduct(3))
	assert.True(t, vendor.IsStaff())
	assert.False(t, user.IsStaff())
}

func TestPurchasable(t *testing.T) {
	p := &Product{}
	assert.False(t, p.Purchasable())
	p.SalePrice = decimal.NewNullDecimal(decimal.NewFromInt(900))
	assert.True(t, p.Purchasable())
}
