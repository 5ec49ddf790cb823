package api

import (
	"fmt"
	"net/http"

	"velorent/internal/export"
	"velorent/internal/models"
	"velorent/internal/service"
)

func (s *HTTPServer) fsnReport(w http.ResponseWriter, r *http.Request) (*models.FSNReport, bool) {
	if !s.caller(r).IsAdmin() {
		s.writeServiceError(w, r, service.ErrForbidden)
		return nil, false
	}
	report, err := s.deps.Reports.FSNAnalysis(r.Context(), s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return report, true
}

func (s *HTTPServer) handleFSN(w http.ResponseWriter, r *http.Request) {
	report, ok := s.fsnReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleExportFSN(w http.ResponseWriter, r *http.Request) {
	report, ok := s.fsnReport(w, r)
	if !ok {
		return
	}
	name := fmt.Sprintf("fsn-%s.xlsx", report.GeneratedAt.UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.FSN(w, report); err != nil {
		s.logger.Error().Err(err).Msg("fsn export failed")
	}
}
