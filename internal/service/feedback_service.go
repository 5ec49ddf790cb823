package service

import (
	"context"
	"slices"
	"strings"

	"velorent/internal/domain"
	"velorent/internal/events"
	"velorent/internal/models"

	"github.com/rs/zerolog"
)

var (
	feedbackTypes      = []string{"general", "bug", "feature", "complaint", "support"}
	feedbackStatuses   = []string{models.FeedbackPending, models.FeedbackInProgress, models.FeedbackResolved, models.FeedbackClosed}
	feedbackPriorities = []string{"low", "medium", "high", "urgent"}
	feedbackCategories = []string{"booking", "payment", "product", "account", "other"}
)

type FeedbackService struct {
	repo     domain.FeedbackRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewFeedbackService(repo domain.FeedbackRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *FeedbackService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FeedbackService{repo: repo, eventBus: eventBus, logger: logger}
}

func (s *FeedbackService) CreateFeedback(ctx context.Context, caller models.Principal, f *models.Feedback) error {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	if f.Subject == "" || f.Message == "" {
		return invalid("subject and message are required")
	}
	if f.Type == "" {
		f.Type = "general"
	}
	if f.Priority == "" {
		f.Priority = "medium"
	}
	if f.Category == "" {
		f.Category = "other"
	}
	if !oneOf(f.Type, feedbackTypes) {
		return invalid("unknown feedback type %q", f.Type)
	}
	if !oneOf(f.Priority, feedbackPriorities) {
		return invalid("unknown priority %q", f.Priority)
	}
	if !oneOf(f.Category, feedbackCategories) {
		return invalid("unknown category %q", f.Category)
	}

	f.UserID = caller.UserID
	f.UserName = caller.Name
	f.Status = models.FeedbackPending
	f.AssignedTo, f.Response, f.RespondedBy, f.RespondedAt = nil, nil, nil, nil

	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		return err
	}
	s.publish(events.EventFeedbackCreated, f)
	return nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, caller models.Principal, id int64) (*models.Feedback, error) {
	f, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff() && f.UserID != caller.UserID {
		return nil, ErrForbidden
	}
	return f, nil
}

// ListFeedback shows staff every ticket; other callers only see their own.
func (s *FeedbackService) ListFeedback(ctx context.Context, caller models.Principal, filter models.FeedbackFilter) ([]*models.Feedback, error) {
	if filter.Status != "" && !oneOf(filter.Status, feedbackStatuses) {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if !caller.IsStaff() {
		filter.UserID = caller.UserID
	}
	return s.repo.ListFeedback(ctx, filter)
}

func (s *FeedbackService) UpdateFeedback(ctx context.Context, caller models.Principal, id int64, upd models.FeedbackUpdate) (*models.Feedback, error) {
	if !caller.IsStaff() {
		return nil, ErrForbidden
	}
	if upd.Status != nil && !oneOf(*upd.Status, feedbackStatuses) {
		return nil, invalid("unknown status %q", *upd.Status)
	}
	if upd.Priority != nil && !oneOf(*upd.Priority, feedbackPriorities) {
		return nil, invalid("unknown priority %q", *upd.Priority)
	}
	if err := s.repo.UpdateFeedback(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.repo.GetFeedback(ctx, id)
}

// Respond stores the single staff response; status defaults to resolved.
func (s *FeedbackService) Respond(ctx context.Context, caller models.Principal, id int64, message, status string) (*models.Feedback, error) {
	if !caller.IsStaff() {
		return nil, ErrForbidden
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("response message is required")
	}
	if status == "" {
		status = models.FeedbackResolved
	}
	if !oneOf(status, feedbackStatuses) {
		return nil, invalid("unknown status %q", status)
	}
	if err := s.repo.RespondToFeedback(ctx, id, caller.UserID, message, status); err != nil {
		return nil, err
	}
	f, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventFeedbackResponded, f)
	return f, nil
}

func (s *FeedbackService) DeleteFeedback(ctx context.Context, caller models.Principal, id int64) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteFeedback(ctx, id)
}

func (s *FeedbackService) publish(eventType string, f *models.Feedback) {
	if s.eventBus == nil {
		return
	}
	payload := events.FeedbackEventPayload{
		FeedbackID: f.ID,
		UserID:     f.UserID,
		UserName:   f.UserName,
		Type:       f.Type,
		Subject:    f.Subject,
		Priority:   f.Priority,
		Status:     f.Status,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("feedback_id", f.ID).Msg("publish event error")
	}
}

func oneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, v)
}
