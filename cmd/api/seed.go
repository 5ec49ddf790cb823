package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"velorent/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type seedProduct struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Brand        string `yaml:"brand"`
	WeeklyPrice  string `yaml:"weekly_price"`
	SalePrice    string `yaml:"sale_price"`
	Category     string `yaml:"category"`
	CountInStock int64  `yaml:"count_in_stock"`
	Image        string `yaml:"image"`
	Size         string `yaml:"size"`
	Color        string `yaml:"color"`
	VendorID     int64  `yaml:"vendor_id"`
}

type catalogStore interface {
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, p *models.Product) error
}

// loadCatalog parses the seed file; prices are decimal strings.
func loadCatalog(path string) ([]*models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Products []seedProduct `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Products))
	out := make([]*models.Product, 0, len(file.Products))
	for i, sp := range file.Products {
		name := strings.TrimSpace(sp.Name)
		if name == "" {
			return nil, fmt.Errorf("product #%d: name is required", i+1)
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("product %q is listed twice", name)
		}
		seen[strings.ToLower(name)] = true

		weekly, err := decimal.NewFromString(sp.WeeklyPrice)
		if err != nil || !weekly.IsPositive() {
			return nil, fmt.Errorf("product %q: weekly_price must be a positive amount", name)
		}
		if sp.CountInStock < 0 {
			return nil, fmt.Errorf("product %q: count_in_stock must not be negative", name)
		}

		p := &models.Product{
			Name:         name,
			Description:  sp.Description,
			Brand:        sp.Brand,
			WeeklyPrice:  weekly,
			Category:     sp.Category,
			CountInStock: sp.CountInStock,
			Image:        sp.Image,
			Size:         sp.Size,
			Color:        sp.Color,
			VendorID:     sp.VendorID,
		}
		if sp.SalePrice != "" {
			sale, err := decimal.NewFromString(sp.SalePrice)
			if err != nil || sale.IsNegative() {
				return nil, fmt.Errorf("product %q: invalid sale_price", name)
			}
			p.SalePrice = decimal.NewNullDecimal(sale)
		}
		out = append(out, p)
	}
	return out, nil
}

// seedCatalog fills an empty catalog from path. A missing file is not an error.
func seedCatalog(ctx context.Context, store catalogStore, path string, logger *zerolog.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	n, err := store.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	products, err := loadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Str("seed_path", path).Msg("catalog seed file not found, starting with an empty catalog")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for _, p := range products {
		if err := store.CreateProduct(ctx, p); err != nil {
			return 0, fmt.Errorf("seed %q: %w", p.Name, err)
		}
	}
	logger.Info().Int("count", len(products)).Str("seed_path", path).Msg("catalog seeded")
	return len(products), nil
}
