package database

import (
	"context"
	"testing"

	"velorent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, db, 3)
	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("899.99"))
	p.Color = "red"
	require.NoError(t, db.UpdateProduct(ctx, p))

	got, err := db.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.WeeklyPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.SalePrice.Valid)
	assert.Equal(t, "899.99", got.SalePrice.Decimal.StringFixed(2))
	assert.Equal(t, "red", got.Color)
	assert.Equal(t, int64(3), got.CountInStock)

	require.NoError(t, db.DeleteProduct(ctx, p.ID))
	_, err = db.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteProduct(ctx, p.ID), ErrNotFound)
	assert.ErrorIs(t, db.UpdateProduct(ctx, p), ErrNotFound)
}

func TestListProducts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, p := range []*models.Product{
		{Name: "City Cruiser", Brand: "Electra", Category: "city", WeeklyPrice: decimal.NewFromInt(60), CountInStock: 1},
		{Name: "Mountain Pro", Brand: "Giant", Category: "mountain", WeeklyPrice: decimal.NewFromInt(120), CountInStock: 2},
		{Name: "E-Scooter X", Brand: "Xiaomi", Category: "scooter", WeeklyPrice: decimal.NewFromInt(80), CountInStock: 5},
	} {
		require.NoError(t, db.CreateProduct(ctx, p))
	}

	page, err := db.ListProducts(ctx, models.ProductFilter{Keyword: "giant"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Mountain Pro", page.Products[0].Name)

	page, err = db.ListProducts(ctx, models.ProductFilter{Category: "scooter"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	page, err = db.ListProducts(ctx, models.ProductFilter{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Products, 1)

	n, err := db.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	newest, err := db.NewestProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "E-Scooter X", newest[0].Name)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, 1)
	other := seedProduct(t, db, 1)

	require.NoError(t, db.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 1, Name: "Ann", Rating: 5, Comment: "great"}))
	require.NoError(t, db.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 2, Name: "Bob", Rating: 2}))

	err := db.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 1, Name: "Ann", Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = db.AddReview(ctx, &models.Review{ProductID: 999, UserID: 1, Name: "Ann", Rating: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := db.GetProductWithReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Rating, 0.001)
	assert.Equal(t, int64(2), got.NumReviews)
	assert.Len(t, got.Reviews, 2)

	top, err := db.TopProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, p.ID, top[0].ID)
	assert.NotEqual(t, other.ID, top[0].ID)
}
