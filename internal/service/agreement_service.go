package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"velorent/internal/database"
	"velorent/internal/domain"
	"velorent/internal/events"
	"velorent/internal/models"
	"velorent/internal/pricing"

	"github.com/rs/zerolog"
)

type AgreementService struct {
	repo     domain.AgreementRepository
	renderer domain.AgreementRenderer
	dir      string
	baseURL  string
	logger   *zerolog.Logger
}

func NewAgreementService(repo domain.AgreementRepository, renderer domain.AgreementRenderer, dir, baseURL string, logger *zerolog.Logger) *AgreementService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AgreementService{
		repo:     repo,
		renderer: renderer,
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// AgreementFileName is the document name of a booking's agreement.
func AgreementFileName(bookingID int64) string {
	return fmt.Sprintf("agreement-%d.pdf", bookingID)
}

// Generate renders and stores the rental agreement of a booking. A booking has at most
// one agreement, so a second call returns the stored one.
func (s *AgreementService) Generate(ctx context.Context, caller models.Principal, bookingID int64) (*models.RentalAgreement, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canSeeBooking(caller, booking) {
		return nil, ErrForbidden
	}

	existing, err := s.repo.GetAgreementByBooking(ctx, bookingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	if booking.Status == models.StatusCancelled {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
	}

	product, err := s.repo.GetProduct(ctx, booking.ProductID)
	if err != nil {
		return nil, err
	}
	weeks, err := pricing.Weeks(booking.StartDate, booking.EndDate)
	if err != nil {
		return nil, err
	}

	name := AgreementFileName(bookingID)
	a := &models.RentalAgreement{
		BookingID:     booking.ID,
		CustomerID:    booking.UserID,
		CustomerName:  booking.UserName,
		CustomerEmail: booking.UserEmail,
		ProductID:     product.ID,
		ProductName:   product.Name,
		ProductBrand:  product.Brand,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		Weeks:         weeks,
		WeeklyRate:    product.WeeklyPrice,
		TotalPrice:    booking.TotalPrice,
		DocumentURL:   s.baseURL + "/" + name,
		DocumentPath:  filepath.Join(s.dir, name),
		Status:        models.AgreementActive,
	}
	if booking.Status == models.StatusCompleted {
		a.Status = models.AgreementCompleted
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create agreements dir: %w", err)
	}
	if err := s.renderer.Render(a, a.DocumentPath); err != nil {
		return nil, fmt.Errorf("render agreement: %w", err)
	}

	if err := s.repo.CreateAgreement(ctx, a); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return s.repo.GetAgreementByBooking(ctx, bookingID)
		}
		return nil, err
	}

	s.logger.Info().Int64("booking_id", bookingID).Str("path", a.DocumentPath).Msg("rental agreement generated")
	return a, nil
}

func (s *AgreementService) GetByBooking(ctx context.Context, caller models.Principal, bookingID int64) (*models.RentalAgreement, error) {
	a, err := s.repo.GetAgreementByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && a.CustomerID != caller.UserID {
		return nil, ErrForbidden
	}
	return a, nil
}

// HandleBookingCompleted closes the agreement of a completed booking.
func (s *AgreementService) HandleBookingCompleted(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	err := s.repo.UpdateAgreementStatus(context.Background(), payload.BookingID, models.AgreementCompleted)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		s.logger.Error().Err(err).Int64("booking_id", payload.BookingID).Msg("close agreement")
		return err
	}
	return nil
}
