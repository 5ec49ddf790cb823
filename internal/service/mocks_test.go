package service

import (
	"context"
	"time"

	"velorent/internal/models"
	"velorent/internal/payment"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}
func (m *mockRepo) GetProductWithReviews(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}
func (m *mockRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) ListProducts(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductPage), args.Error(1)
}
func (m *mockRepo) AllProducts(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}
func (m *mockRepo) TopProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}
func (m *mockRepo) NewestProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}
func (m *mockRepo) AddReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) CheckAvailability(ctx context.Context, id int64, s, e time.Time) (bool, error) {
	args := m.Called(ctx, id, s, e)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, id int64) ([]*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetAvailabilityForPeriod(ctx context.Context, id int64, s time.Time, d int) ([]*models.Availability, error) {
	args := m.Called(ctx, id, s, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Availability), args.Error(1)
}
func (m *mockRepo) RecordPayment(ctx context.Context, txn *models.Transaction, v int64) error {
	return m.Called(ctx, txn, v).Error(0)
}
func (m *mockRepo) GetTransactionByCharge(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}
func (m *mockRepo) ListTransactions(ctx context.Context, buyerID int64) ([]*models.Transaction, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}
func (m *mockRepo) CreateSyncTask(ctx context.Context, t *models.SyncTask) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockRepo) GetConfirmedBookingsSince(ctx context.Context, since time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) LastBookedAtByProduct(ctx context.Context) (map[int64]time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]time.Time), args.Error(1)
}
func (m *mockRepo) CreateAgreement(ctx context.Context, a *models.RentalAgreement) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockRepo) GetAgreementByBooking(ctx context.Context, id int64) (*models.RentalAgreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentalAgreement), args.Error(1)
}
func (m *mockRepo) UpdateAgreementStatus(ctx context.Context, id int64, s string) error {
	return m.Called(ctx, id, s).Error(0)
}
func (m *mockRepo) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	return m.Called(ctx, f).Error(0)
}
func (m *mockRepo) GetFeedback(ctx context.Context, id int64) (*models.Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}
func (m *mockRepo) ListFeedback(ctx context.Context, f models.FeedbackFilter) ([]*models.Feedback, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Feedback), args.Error(1)
}
func (m *mockRepo) UpdateFeedback(ctx context.Context, id int64, u models.FeedbackUpdate) error {
	return m.Called(ctx, id, u).Error(0)
}
func (m *mockRepo) RespondToFeedback(ctx context.Context, id, by int64, msg, s string) error {
	return m.Called(ctx, id, by, msg, s).Error(0)
}
func (m *mockRepo) DeleteFeedback(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetPendingSyncTasks(ctx context.Context, limit int, types ...string) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockRepo) UpdateSyncTaskStatus(ctx context.Context, id int64, s, e string, next *time.Time) error {
	return m.Called(ctx, id, s, e, next).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, bid int64, b *models.Booking) error {
	return m.Called(ctx, tt, bid, b).Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}
func (m *mockGateway) RetrieveCharge(ctx context.Context, id string) (*payment.Charge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}
func (m *mockGateway) RetrieveEvent(ctx context.Context, id string) (*payment.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(a *models.RentalAgreement, path string) error {
	return m.Called(a, path).Error(0)
}
