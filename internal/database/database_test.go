package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"velorent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProduct(t *testing.T, db *DB, stock int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         "Trek FX 3",
		Brand:        "Trek",
		Category:     "hybrid",
		WeeklyPrice:  decimal.NewFromInt(100),
		CountInStock: stock,
		VendorID:     7,
	}
	require.NoError(t, db.CreateProduct(context.Background(), p))
	return p
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewDBMigratesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "velorent.db")

	db, err := NewDB(path, nil)
	require.NoError(t, err)
	p := seedProduct(t, db, 1)
	require.NoError(t, db.Close())

	db, err = NewDB(path, nil)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trek FX 3", got.Name)
	assert.Equal(t, path, db.Path())
}

func TestInMemoryDB(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	p := seedProduct(t, db, 2)
	b := &models.Booking{UserID: 1, ProductID: p.ID, StartDate: day("2030-01-01"), EndDate: day("2030-01-08")}
	require.NoError(t, db.CreateBookingWithLock(context.Background(), b))
	assert.NoError(t, db.Ping(context.Background()))
}

func TestForeignKeysEnabled(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO reviews (product_id, user_id, name, rating, comment, created_at) VALUES (999, 1, 'x', 5, '', ?)`,
		time.Now().UTC())
	assert.Error(t, err)
}
