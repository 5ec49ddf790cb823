package service

import (
	"context"
	"fmt"
	"time"

	"velorent/internal/database"
	"velorent/internal/domain"
	"velorent/internal/events"
	"velorent/internal/models"
	"velorent/internal/pricing"

	"github.com/rs/zerolog"
)

// BookingRules bound the ranges a renter may request.
type BookingRules struct {
	MaxDays        int
	MaxAdvanceDays int
}

type BookingService struct {
	repo         domain.BookingRepository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	rules        BookingRules
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.BookingRepository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, rules BookingRules, logger *zerolog.Logger) *BookingService {
	if rules.MaxDays <= 0 {
		rules.MaxDays = 90
	}
	if rules.MaxAdvanceDays <= 0 {
		rules.MaxAdvanceDays = 365
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		rules:        rules,
		now:          time.Now,
		logger:       logger,
	}
}

// ValidateRange checks a requested [start, end) against the booking rules.
func (s *BookingService) ValidateRange(start, end time.Time) error {
	start, end = models.TruncateDay(start), models.TruncateDay(end)
	if !end.After(start) {
		return database.ErrInvalidRange
	}

	today := models.TruncateDay(s.now())
	// a day of tolerance for clients a timezone behind UTC
	if start.Before(today.AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}
	if start.After(today.AddDate(0, 0, s.rules.MaxAdvanceDays)) {
		return database.ErrDateTooFar
	}
	if models.DaysBetween(start, end) > s.rules.MaxDays {
		return database.ErrRangeTooLong
	}
	return nil
}

// Quote prices a rental of the product without reserving it.
func (s *BookingService) Quote(ctx context.Context, productID int64, start, end time.Time) (*pricing.Quote, error) {
	start, end = models.TruncateDay(start), models.TruncateDay(end)
	if !end.After(start) {
		return nil, database.ErrInvalidRange
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return pricing.NewQuote(start, end, product.WeeklyPrice)
}

// CreateBooking reserves one unit of the product for the caller.
func (s *BookingService) CreateBooking(ctx context.Context, caller models.Principal, productID int64, start, end time.Time) (*models.Booking, error) {
	start, end = models.TruncateDay(start), models.TruncateDay(end)
	if err := s.ValidateRange(start, end); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	available, err := s.repo.CheckAvailability(ctx, productID, start, end)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, database.ErrNotAvailable
	}

	total, err := pricing.RentalTotal(start, end, product.WeeklyPrice)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:      caller.UserID,
		UserName:    caller.Name,
		UserEmail:   caller.Email,
		ProductID:   product.ID,
		ProductName: product.Name,
		StartDate:   start,
		EndDate:     end,
		TotalPrice:  total,
		Status:      models.StatusPending,
	}

	// the availability check is repeated under the write lock
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("product_id", booking.ProductID).
		Str("start", start.Format(models.DateLayout)).
		Str("end", end.Format(models.DateLayout)).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "user", caller.UserID)
	s.enqueueSync(ctx, models.TaskSheetsUpsert, booking)

	return booking, nil
}

// GetBooking returns a booking visible to the caller.
func (s *BookingService) GetBooking(ctx context.Context, caller models.Principal, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeBooking(caller, booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) MyBookings(ctx context.Context, caller models.Principal) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, caller.UserID)
}

func (s *BookingService) ListBookings(ctx context.Context, caller models.Principal, filter models.BookingFilter) ([]*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if filter.Status != "" && !validBookingStatus(filter.Status) {
		return nil, invalid("unknown booking status %q", filter.Status)
	}
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) ConfirmBooking(ctx context.Context, caller models.Principal, id int64) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.transition(ctx, caller, id, models.StatusConfirmed)
}

func (s *BookingService) CancelBooking(ctx context.Context, caller models.Principal, id int64) (*models.Booking, error) {
	return s.transition(ctx, caller, id, models.StatusCancelled)
}

func (s *BookingService) CompleteBooking(ctx context.Context, caller models.Principal, id int64) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.transition(ctx, caller, id, models.StatusCompleted)
}

// UpdateStatus is the admin entry point for any allowed transition.
func (s *BookingService) UpdateStatus(ctx context.Context, caller models.Principal, id int64, status string) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if !validBookingStatus(status) {
		return nil, invalid("unknown booking status %q", status)
	}
	return s.transition(ctx, caller, id, status)
}

func (s *BookingService) DeleteBooking(ctx context.Context, caller models.Principal, id int64) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if !canSeeBooking(caller, booking) {
		return ErrForbidden
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("booking_id", id).Int64("by", caller.UserID).Msg("booking deleted")
	s.publishEvent(events.EventBookingDeleted, booking, changedBy(caller), caller.UserID)
	s.enqueueSync(ctx, models.TaskSheetsDelete, booking)
	return nil
}

func (s *BookingService) GetAvailability(ctx context.Context, productID int64, start time.Time, days int) ([]*models.Availability, error) {
	if days < 1 || days > models.MaxCalendarDays {
		return nil, invalid("days must be between 1 and %d", models.MaxCalendarDays)
	}
	if start.IsZero() {
		start = s.now()
	}
	return s.repo.GetAvailabilityForPeriod(ctx, productID, models.TruncateDay(start), days)
}

func (s *BookingService) CheckAvailability(ctx context.Context, productID int64, start, end time.Time) (bool, error) {
	return s.repo.CheckAvailability(ctx, productID, models.TruncateDay(start), models.TruncateDay(end))
}

func (s *BookingService) transition(ctx context.Context, caller models.Principal, id int64, to string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeBooking(caller, booking) {
		return nil, ErrForbidden
	}
	if !CanTransition(booking.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, to)
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, booking.Version, to); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", id).Str("from", booking.Status).Str("to", to).Int64("by", caller.UserID).Msg("booking status changed")
	s.publishEvent(statusEvent(to), updated, changedBy(caller), caller.UserID)
	s.enqueueSync(ctx, models.TaskSheetsUpsert, updated)
	return updated, nil
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusConfirmed || to == models.StatusCancelled
	case models.StatusConfirmed:
		return to == models.StatusCancelled || to == models.StatusCompleted
	}
	return false
}

func validBookingStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
		return true
	}
	return false
}

func statusEvent(status string) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return events.EventBookingCompleted
	}
}

func canSeeBooking(caller models.Principal, b *models.Booking) bool {
	return caller.IsAdmin() || caller.UserID == b.UserID
}

func changedBy(caller models.Principal) string {
	if caller.IsAdmin() {
		return "admin"
	}
	return "user"
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy string, changedByID int64) {
	publishBookingEvent(s.eventBus, s.logger, eventType, booking, changedBy, changedByID)
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, booking *models.Booking) {
	enqueueSheets(ctx, s.sheetsWorker, s.logger, taskType, booking)
}

func publishBookingEvent(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, booking *models.Booking, changedBy string, changedByID int64) {
	if bus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		UserName:    booking.UserName,
		ProductID:   booking.ProductID,
		ProductName: booking.ProductName,
		Status:      booking.Status,
		StartDate:   booking.StartDate,
		EndDate:     booking.EndDate,
		TotalPrice:  booking.TotalPrice,
		ChangedBy:   changedBy,
		ChangedByID: changedByID,
	}

	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func enqueueSheets(ctx context.Context, worker domain.SyncWorker, logger *zerolog.Logger, taskType string, booking *models.Booking) {
	if worker == nil {
		return
	}

	var snapshot *models.Booking
	if taskType == models.TaskSheetsUpsert {
		snapshot = booking
	}
	if err := worker.EnqueueTask(ctx, taskType, booking.ID, snapshot); err != nil {
		logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
