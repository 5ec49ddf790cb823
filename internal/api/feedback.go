package api

import (
	"net/http"
	"strings"

	"velorent/internal/models"
)

type feedbackRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=general bug feature complaint support"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category string `json:"category" validate:"omitempty,oneof=booking payment product account other"`
}

type feedbackUpdateRequest struct {
	Status     *string `json:"status" validate:"omitempty,oneof=pending in-progress resolved closed"`
	Priority   *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo *int64  `json:"assignedTo" validate:"omitempty,gt=0"`
}

type feedbackResponseRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
	Status  string `json:"status" validate:"omitempty,oneof=pending in-progress resolved closed"`
}

func (s *HTTPServer) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	f := &models.Feedback{
		Type:     req.Type,
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: req.Priority,
		Category: req.Category,
	}
	if err := s.deps.Feedback.CreateFeedback(r.Context(), s.caller(r), f); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *HTTPServer) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.deps.Feedback.ListFeedback(r.Context(), s.caller(r), models.FeedbackFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		Category: strings.TrimSpace(q.Get("category")),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": list})
}

func (s *HTTPServer) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := s.deps.Feedback.GetFeedback(r.Context(), s.caller(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *HTTPServer) handleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req feedbackUpdateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	f, err := s.deps.Feedback.UpdateFeedback(r.Context(), s.caller(r), id, models.FeedbackUpdate{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *HTTPServer) handleRespondFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req feedbackResponseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	f, err := s.deps.Feedback.Respond(r.Context(), s.caller(r), id, req.Message, req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *HTTPServer) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Feedback.DeleteFeedback(r.Context(), s.caller(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "feedback removed"})
}
