package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"velorent/internal/export"
	"velorent/internal/models"
)

type createBookingRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.deps.Bookings.CreateBooking(r.Context(), s.caller(r), req.ProductID, start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Bookings.MyBookings(r.Context(), s.caller(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) bookingFilter(r *http.Request) (models.BookingFilter, error) {
	q := r.URL.Query()
	filter := models.BookingFilter{Status: strings.TrimSpace(q.Get("status"))}
	if raw := q.Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid product_id")
		}
		filter.ProductID = id
	}
	var err error
	if filter.Page, err = queryInt(r, "page", 1); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(r, "page_size", models.MaxPageSize); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := s.bookingFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookings, err := s.deps.Bookings.ListBookings(r.Context(), s.caller(r), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := s.bookingFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Export covers the whole ledger unless the caller pages explicitly.
	if r.URL.Query().Get("page_size") == "" {
		filter.PageSize = 0
	}
	bookings, err := s.deps.Bookings.ListBookings(r.Context(), s.caller(r), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("bookings-%s.xlsx", s.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.Bookings(w, bookings); err != nil {
		s.logger.Error().Err(err).Msg("bookings export failed")
	}
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.GetBooking(r.Context(), s.caller(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	booking, err := s.deps.Bookings.UpdateStatus(r.Context(), s.caller(r), id, req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.CancelBooking(r.Context(), s.caller(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Bookings.DeleteBooking(r.Context(), s.caller(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking removed"})
}
