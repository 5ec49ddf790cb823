package domain

import (
	"context"
	"time"

	"velorent/internal/models"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductWithReviews(ctx context.Context, id int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error)
	AllProducts(ctx context.Context) ([]*models.Product, error)
	TopProducts(ctx context.Context, limit int) ([]*models.Product, error)
	NewestProducts(ctx context.Context, limit int) ([]*models.Product, error)
	AddReview(ctx context.Context, r *models.Review) error
}

type BookingRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CheckAvailability(ctx context.Context, productID int64, start, end time.Time) (bool, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	DeleteBooking(ctx context.Context, id int64) error
	GetAvailabilityForPeriod(ctx context.Context, productID int64, start time.Time, days int) ([]*models.Availability, error)
}

type PaymentRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	RecordPayment(ctx context.Context, txn *models.Transaction, bookingVersion int64) error
	GetTransactionByCharge(ctx context.Context, chargeID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, buyerID int64) ([]*models.Transaction, error)
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
}

type ReportRepository interface {
	AllProducts(ctx context.Context) ([]*models.Product, error)
	GetConfirmedBookingsSince(ctx context.Context, since time.Time) ([]*models.Booking, error)
	LastBookedAtByProduct(ctx context.Context) (map[int64]time.Time, error)
}

type AgreementRepository interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateAgreement(ctx context.Context, a *models.RentalAgreement) error
	GetAgreementByBooking(ctx context.Context, bookingID int64) (*models.RentalAgreement, error)
	UpdateAgreementStatus(ctx context.Context, bookingID int64, status string) error
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) error
	GetFeedback(ctx context.Context, id int64) (*models.Feedback, error)
	ListFeedback(ctx context.Context, filter models.FeedbackFilter) ([]*models.Feedback, error)
	UpdateFeedback(ctx context.Context, id int64, upd models.FeedbackUpdate) error
	RespondToFeedback(ctx context.Context, id, responderID int64, message, status string) error
	DeleteFeedback(ctx context.Context, id int64) error
}

type SyncQueueRepository interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int, taskTypes ...string) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Repository is everything the SQLite store provides.
type Repository interface {
	ProductRepository
	BookingRepository
	PaymentRepository
	ReportRepository
	AgreementRepository
	FeedbackRepository
	SyncQueueRepository
}

// AttemptStore remembers which charge a payment idempotency key produced.
type AttemptStore interface {
	GetAttempt(ctx context.Context, key string) (*models.PaymentAttempt, error)
	SaveAttempt(ctx context.Context, attempt *models.PaymentAttempt) error
	DeleteAttempt(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error
}

// AgreementRenderer writes the agreement document to path.
type AgreementRenderer interface {
	Render(a *models.RentalAgreement, path string) error
}
