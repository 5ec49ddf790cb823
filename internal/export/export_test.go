package export

import (
	"bytes"
	"testing"
	"time"

	"velorent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingsWorkbook(t *testing.T) {
	bookings := []*models.Booking{{
		ID:          1,
		ProductName: "Trek FX 3",
		UserName:    "Ann",
		StartDate:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalPrice:  decimal.NewFromInt(200),
		Status:      models.StatusConfirmed,
	}}

	var buf bytes.Buffer
	require.NoError(t, Bookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, bookingHeaders, rows[0])
	assert.Equal(t, "Trek FX 3", rows[1][1])
	assert.Equal(t, "2026-03-05", rows[1][4])
	assert.Equal(t, "10", rows[1][6])
	assert.Equal(t, "confirmed", rows[1][8])
}

func TestFSNWorkbook(t *testing.T) {
	report := &models.FSNReport{
		Fast:      []models.FSNEntry{{ProductID: 1, Name: "Fast", BookingCount: 6, LastBookedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}},
		Slow:      []models.FSNEntry{},
		NonMoving: []models.FSNEntry{{ProductID: 2, Name: "Idle", LastBookedAt: time.Unix(0, 0).UTC()}},
	}

	var buf bytes.Buffer
	require.NoError(t, FSN(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Fast", "Slow", "Non-moving"}, f.GetSheetList())

	fast, err := f.GetRows("Fast")
	require.NoError(t, err)
	require.Len(t, fast, 2)
	assert.Equal(t, "6", fast[1][3])
	assert.Equal(t, "2026-06-01", fast[1][4])

	idle, err := f.GetRows("Non-moving")
	require.NoError(t, err)
	require.Len(t, idle, 2)
	assert.Equal(t, "Idle", idle[1][1])
}
