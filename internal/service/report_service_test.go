package service

import (
	"context"
	"testing"
	"time"

	"velorent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovement(t *testing.T) {
	assert.Equal(t, models.MovementNonMoving, Movement(0))
	assert.Equal(t, models.MovementSlow, Movement(1))
	assert.Equal(t, models.MovementSlow, Movement(4))
	assert.Equal(t, models.MovementFast, Movement(5))
	assert.Equal(t, models.MovementFast, Movement(12))
}

func TestFSNAnalysis(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewReportService(repo)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	since := now.AddDate(0, -6, 0)

	products := []*models.Product{{ID: 1, Name: "Fast"}, {ID: 2, Name: "Slow"}, {ID: 3, Name: "Idle"}, {ID: 4, Name: "Busier"}}
	var bookings []*models.Booking
	for i := 0; i < 5; i++ {
		bookings = append(bookings, &models.Booking{ProductID: 1, CreatedAt: now.AddDate(0, -1, -i)})
	}
	for i := 0; i < 7; i++ {
		bookings = append(bookings, &models.Booking{ProductID: 4, CreatedAt: now.AddDate(0, -2, -i)})
	}
	lastSlow := now.AddDate(0, 0, -3)
	bookings = append(bookings,
		&models.Booking{ProductID: 2, CreatedAt: now.AddDate(0, -3, 0)},
		&models.Booking{ProductID: 2, CreatedAt: lastSlow},
	)

	repo.On("AllProducts", ctx).Return(products, nil).Once()
	repo.On("GetConfirmedBookingsSince", ctx, since).Return(bookings, nil).Once()
	repo.On("LastBookedAtByProduct", ctx).Return(map[int64]time.Time{2: lastSlow}, nil).Once()

	report, err := svc.FSNAnalysis(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, since, report.Since)

	require.Len(t, report.Fast, 2)
	assert.Equal(t, int64(4), report.Fast[0].ProductID, "higher count first")
	assert.Equal(t, 7, report.Fast[0].BookingCount)
	assert.Equal(t, int64(1), report.Fast[1].ProductID)

	require.Len(t, report.Slow, 1)
	assert.Equal(t, 2, report.Slow[0].BookingCount)
	assert.Equal(t, lastSlow, report.Slow[0].LastBookedAt)

	require.Len(t, report.NonMoving, 1)
	assert.Equal(t, int64(3), report.NonMoving[0].ProductID)
	assert.Equal(t, int64(0), report.NonMoving[0].LastBookedAt.Unix())
	repo.AssertExpectations(t)
}

func TestFSNNonMovingSortedByLastBooking(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewReportService(repo)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	products := []*models.Product{{ID: 1, Name: "Never"}, {ID: 2, Name: "Old"}, {ID: 3, Name: "Older"}}
	old, older := now.AddDate(0, -8, 0), now.AddDate(-2, 0, 0)

	repo.On("AllProducts", ctx).Return(products, nil).Once()
	repo.On("GetConfirmedBookingsSince", ctx, now.AddDate(0, -6, 0)).Return([]*models.Booking{}, nil).Once()
	repo.On("LastBookedAtByProduct", ctx).Return(map[int64]time.Time{2: old, 3: older}, nil).Once()

	report, err := svc.FSNAnalysis(ctx, now)
	require.NoError(t, err)
	require.Len(t, report.NonMoving, 3)

	assert.Equal(t, "Old", report.NonMoving[0].Name)
	assert.Equal(t, old, report.NonMoving[0].LastBookedAt)
	assert.Equal(t, "Older", report.NonMoving[1].Name)
	assert.Equal(t, "Never", report.NonMoving[2].Name)
	assert.Equal(t, int64(0), report.NonMoving[2].LastBookedAt.Unix())
}
