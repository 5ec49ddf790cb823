package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           int64               `db:"id" json:"id"`
	Name         string              `db:"name" json:"name"`
	Description  string              `db:"description" json:"description"`
	Brand        string              `db:"brand" json:"brand"`
	WeeklyPrice  decimal.Decimal     `db:"weekly_price" json:"weeklyPrice"`
	SalePrice    decimal.NullDecimal `db:"sale_price" json:"salePrice"`
	Category     string              `db:"category" json:"category"`
	CountInStock int64               `db:"count_in_stock" json:"countInStock"`
	Image        string              `db:"image" json:"image"`
	Rating       float64             `db:"rating" json:"rating"`
	NumReviews   int64               `db:"num_reviews" json:"numReviews"`
	Size         string              `db:"size" json:"size,omitempty"`
	Color        string              `db:"color" json:"color,omitempty"`
	VendorID     int64               `db:"vendor_id" json:"vendorId"`
	Reviews      []Review            `db:"-" json:"reviews,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updatedAt"`
}

// Purchasable reports whether the product has a one-time sale price.
func (p *Product) Purchasable() bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive()
}

type Review struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"productId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Keyword  string
	Category string
	Page     int
	PageSize int
}

type ProductPage struct {
	Products []*Product `json:"products"`
	Page     int        `json:"page"`
	Pages    int        `json:"pages"`
	Total    int64      `json:"total"`
}
