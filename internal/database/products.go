package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"velorent/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const productColumns = `id, name, description, brand, weekly_price, sale_price, category, count_in_stock,
	image, rating, num_reviews, size, color, vendor_id, created_at, updated_at`

func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `INSERT INTO products (
				name, description, brand, weekly_price, sale_price, category, count_in_stock,
				image, rating, num_reviews, size, color, vendor_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		p.Name, p.Description, p.Brand, p.WeeklyPrice, p.SalePrice, p.Category, p.CountInStock,
		p.Image, p.Size, p.Color, p.VendorID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.Rating = 0
	p.NumReviews = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return getProduct(ctx, db.DB, id)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

// GetProductWithReviews loads the product and its reviews, newest first.
func (db *DB) GetProductWithReviews(ctx context.Context, id int64) (*models.Product, error) {
	p, err := db.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	err = db.SelectContext(ctx, &reviews, `SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews WHERE product_id = ? ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	p.Reviews = reviews
	return p, nil
}

func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `UPDATE products SET name = ?, description = ?, brand = ?, weekly_price = ?, sale_price = ?,
				category = ?, count_in_stock = ?, image = ?, size = ?, color = ?, updated_at = ?
			WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		p.Name, p.Description, p.Brand, p.WeeklyPrice, p.SalePrice,
		p.Category, p.CountInStock, p.Image, p.Size, p.Color, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns one page of the catalog filtered by keyword and category.
func (db *DB) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)

	var where []string
	var args []interface{}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if cat := strings.TrimSpace(filter.Category); cat != "" {
		where = append(where, `category = ?`)
		args = append(args, cat)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+clause, args...); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := []*models.Product{}
	query := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := db.SelectContext(ctx, &products, query, append(args, size, (page-1)*size)...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	pages := int((total + int64(size) - 1) / int64(size))
	return &models.ProductPage{Products: products, Page: page, Pages: pages, Total: total}, nil
}

func (db *DB) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// AllProducts returns the whole catalog ordered by id.
func (db *DB) AllProducts(ctx context.Context) ([]*models.Product, error) {
	products := []*models.Product{}
	if err := db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (db *DB) TopProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	return db.curated(ctx, `rating DESC, num_reviews DESC, id`, limit)
}

func (db *DB) NewestProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	return db.curated(ctx, `created_at DESC, id DESC`, limit)
}

func (db *DB) curated(ctx context.Context, order string, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = models.DefaultCuratedLimit
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	products := []*models.Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY ` + order + ` LIMIT ?`
	if err := db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// AddReview stores the review and recomputes the product rating in one transaction.
func (db *DB) AddReview(ctx context.Context, r *models.Review) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getProduct(ctx, tx, r.ProductID); err != nil {
			return err
		}

		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx, `INSERT INTO reviews (product_id, user_id, name, rating, comment, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`, r.ProductID, r.UserID, r.Name, r.Rating, r.Comment, now)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert review: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE products SET
				rating = (SELECT AVG(rating) FROM reviews WHERE product_id = ?),
				num_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id = ?),
				updated_at = ?
			WHERE id = ?`, r.ProductID, r.ProductID, now, r.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}

		r.ID = id
		r.CreatedAt = now
		return nil
	})
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = models.DefaultPageSize
	}
	if size > models.MaxPageSize {
		size = models.MaxPageSize
	}
	return page, size
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
