package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"velorent/internal/database"
	"velorent/internal/events"
	"velorent/internal/models"
	"velorent/internal/payment"
	"velorent/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRentalScenario(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "scenario.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	bus := events.NewEventBus()
	var seen []string
	bus.SubscribeAll(func(e *events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	bookings := NewBookingService(db, bus, nil, BookingRules{MaxDays: 90, MaxAdvanceDays: 365}, nil)
	bookings.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	gw := new(mockGateway)
	payments := NewPaymentService(db, gw, repository.NewMemoryAttemptRepository(time.Hour), bus, nil, PaymentConfig{Currency: "usd"}, nil)
	products := NewProductService(db, nil)

	trek := &models.Product{Name: "Trek FX 3", Brand: "Trek", WeeklyPrice: decimal.NewFromInt(100), CountInStock: 1}
	require.NoError(t, products.CreateProduct(ctx, admin, trek))

	booking, err := bookings.CreateBooking(ctx, renter, trek.ID, day("2026-03-05"), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.True(t, booking.TotalPrice.Equal(decimal.NewFromInt(200)))

	_, err = bookings.CreateBooking(ctx, other, trek.ID, day("2026-03-10"), day("2026-03-12"))
	assert.ErrorIs(t, err, database.ErrNotAvailable)

	gw.On("CreateCharge", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool { return req.Amount == 23000 })).
		Return(&payment.Charge{ID: "chrg_e2e", Status: payment.StatusSuccessful, Amount: 23000, Currency: "usd"}, nil).Once()

	res, err := payments.ProcessPayment(ctx, renter, PaymentRequest{
		Token:          "tokn_test",
		Amount:         decimal.NewFromInt(230),
		BookingID:      booking.ID,
		IdempotencyKey: "e2e",
	})
	require.NoError(t, err)
	assert.True(t, res.Transaction.Total.Equal(decimal.NewFromInt(230)))

	confirmed, err := bookings.GetBooking(ctx, renter, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	txns, err := payments.ListTransactions(ctx, renter, false)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Tax.Equal(decimal.NewFromInt(30)))

	// replay does not charge twice
	again, err := payments.ProcessPayment(ctx, renter, PaymentRequest{
		Token:          "tokn_test",
		Amount:         decimal.NewFromInt(230),
		BookingID:      booking.ID,
		IdempotencyKey: "e2e",
	})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	gw.AssertNumberOfCalls(t, "CreateCharge", 1)

	// confirm again is rejected
	_, err = bookings.ConfirmBooking(ctx, admin, booking.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	report, err := NewReportService(db).FSNAnalysis(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, report.Slow, 1)
	assert.Equal(t, trek.ID, report.Slow[0].ProductID)

	// cancellation frees the dates
	_, err = bookings.CancelBooking(ctx, renter, booking.ID)
	require.NoError(t, err)
	_, err = bookings.CreateBooking(ctx, other, trek.ID, day("2026-03-10"), day("2026-03-12"))
	require.NoError(t, err)

	require.NoError(t, bookings.DeleteBooking(ctx, renter, booking.ID))
	mine, err := bookings.MyBookings(ctx, renter)
	require.NoError(t, err)
	assert.Empty(t, mine)

	assert.Contains(t, seen, events.EventBookingCreated)
	assert.Contains(t, seen, events.EventPaymentSucceeded)
	assert.Contains(t, seen, events.EventBookingConfirmed)
	assert.Contains(t, seen, events.EventBookingCancelled)
	assert.Contains(t, seen, events.EventBookingDeleted)
}
