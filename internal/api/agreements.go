package api

import (
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
)

var agreementFilePattern = regexp.MustCompile(`^agreement-([0-9]+)\.pdf$`)

type agreementRequest struct {
	BookingID int64 `json:"bookingId" validate:"required,gt=0"`
}

func (s *HTTPServer) handleGenerateAgreement(w http.ResponseWriter, r *http.Request) {
	var req agreementRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	agreement, err := s.deps.Agreements.Generate(r.Context(), s.caller(r), req.BookingID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agreement)
}

func (s *HTTPServer) handleGetAgreement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "bookingId")
	if !ok {
		return
	}
	agreement, err := s.deps.Agreements.GetByBooking(r.Context(), s.caller(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}

// handleAgreementFile serves an agreement PDF to its customer or an admin.
func (s *HTTPServer) handleAgreementFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	m := agreementFilePattern.FindStringSubmatch(name)
	if m == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	bookingID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, err := s.deps.Agreements.GetByBooking(r.Context(), s.caller(r), bookingID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filepath.Join(s.cfg.Agreements.Dir, name))
}
