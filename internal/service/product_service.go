package service

import (
	"context"
	"strings"

	"velorent/internal/domain"
	"velorent/internal/models"

	"github.com/rs/zerolog"
)

type ProductService struct {
	repo   domain.ProductRepository
	logger *zerolog.Logger
}

func NewProductService(repo domain.ProductRepository, logger *zerolog.Logger) *ProductService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ProductService{repo: repo, logger: logger}
}

func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.repo.ListProducts(ctx, filter)
}

func (s *ProductService) TopProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	return s.repo.TopProducts(ctx, curatedLimit(limit))
}

func (s *ProductService) NewestProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	return s.repo.NewestProducts(ctx, curatedLimit(limit))
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProductWithReviews(ctx, id)
}

// CreateProduct lists a product for the caller. Vendors always own what they create.
func (s *ProductService) CreateProduct(ctx context.Context, caller models.Principal, p *models.Product) error {
	if !caller.IsStaff() {
		return ErrForbidden
	}
	if caller.Role == models.RoleVendor || p.VendorID == 0 {
		p.VendorID = caller.UserID
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", p.ID).Int64("vendor_id", p.VendorID).Msg("product created")
	return nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, caller models.Principal, p *models.Product) error {
	existing, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	if !caller.CanManageProduct(existing.VendorID) {
		return ErrForbidden
	}
	p.VendorID = existing.VendorID
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, p)
}

func (s *ProductService) DeleteProduct(ctx context.Context, caller models.Principal, id int64) error {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManageProduct(existing.VendorID) {
		return ErrForbidden
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Int64("by", caller.UserID).Msg("product deleted")
	return nil
}

// AddReview stores the caller's single review of a product.
func (s *ProductService) AddReview(ctx context.Context, caller models.Principal, productID int64, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, invalid("comment is required")
	}
	name := caller.Name
	if name == "" {
		name = caller.Email
	}
	r := &models.Review{
		ProductID: productID,
		UserID:    caller.UserID,
		Name:      name,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.repo.AddReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return invalid("name is required")
	case !p.WeeklyPrice.IsPositive():
		return invalid("weekly price must be positive")
	case p.SalePrice.Valid && p.SalePrice.Decimal.IsNegative():
		return invalid("sale price must not be negative")
	case p.CountInStock < 0:
		return invalid("count in stock must not be negative")
	}
	return nil
}

func curatedLimit(limit int) int {
	if limit <= 0 {
		return models.DefaultCuratedLimit
	}
	if limit > models.MaxPageSize {
		return models.MaxPageSize
	}
	return limit
}
