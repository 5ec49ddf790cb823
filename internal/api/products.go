package api

import (
	"net/http"
	"strings"
	"time"

	"velorent/internal/models"

	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Description  string           `json:"description" validate:"max=5000"`
	Brand        string           `json:"brand" validate:"max=100"`
	WeeklyPrice  decimal.Decimal  `json:"weeklyPrice"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
	Category     string           `json:"category" validate:"required,max=100"`
	CountInStock int64            `json:"countInStock" validate:"gte=0"`
	Image        string           `json:"image" validate:"omitempty,max=500"`
	Size         string           `json:"size" validate:"max=50"`
	Color        string           `json:"color" validate:"max=50"`
	VendorID     int64            `json:"vendorId" validate:"gte=0"`
}

func (p productRequest) toModel() *models.Product {
	m := &models.Product{
		Name:         p.Name,
		Description:  p.Description,
		Brand:        p.Brand,
		WeeklyPrice:  p.WeeklyPrice,
		Category:     p.Category,
		CountInStock: p.CountInStock,
		Image:        p.Image,
		Size:         p.Size,
		Color:        p.Color,
		VendorID:     p.VendorID,
	}
	if p.SalePrice != nil {
		m.SalePrice = decimal.NewNullDecimal(*p.SalePrice)
	}
	return m
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

func (s *HTTPServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := queryInt(r, "page_size", models.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	result, err := s.deps.Products.ListProducts(r.Context(), models.ProductFilter{
		Keyword:  q.Get("keyword"),
		Category: strings.TrimSpace(q.Get("category")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", models.DefaultCuratedLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	products, err := s.deps.Products.TopProducts(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *HTTPServer) handleNewestProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", models.DefaultCuratedLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	products, err := s.deps.Products.NewestProducts(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *HTTPServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := s.deps.Products.GetProduct(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var start time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		var err error
		if start, err = parseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	days, err := queryInt(r, "days", 31)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	calendar, err := s.deps.Bookings.GetAvailability(r.Context(), id, start, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"productId": id, "days": calendar})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	start, end, err := queryRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quote, err := s.deps.Bookings.Quote(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	available, err := s.deps.Bookings.CheckAvailability(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": quote, "available": available})
}

func (s *HTTPServer) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	product := req.toModel()
	if err := s.deps.Products.CreateProduct(r.Context(), s.caller(r), product); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *HTTPServer) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	product := req.toModel()
	product.ID = id
	if err := s.deps.Products.UpdateProduct(r.Context(), s.caller(r), product); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.deps.Products.GetProduct(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Products.DeleteProduct(r.Context(), s.caller(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}

func (s *HTTPServer) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	review, err := s.deps.Products.AddReview(r.Context(), s.caller(r), id, req.Rating, req.Comment)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
