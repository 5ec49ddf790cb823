package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"velorent/internal/database"
	"velorent/internal/domain"
	"velorent/internal/events"
	"velorent/internal/models"
	"velorent/internal/payment"
	"velorent/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PaymentConfig struct {
	Currency      string
	AttemptLimit  int
	AttemptWindow time.Duration
}

// PurchaseItem is a one-time sale line of a checkout.
type PurchaseItem struct {
	ProductID int64
	Quantity  int64
}

type PaymentRequest struct {
	Token          string
	Amount         decimal.Decimal
	Currency       string
	BookingID      int64
	Items          []PurchaseItem
	IdempotencyKey string
}

type PaymentResult struct {
	Transaction *models.Transaction `json:"transaction"`
	ChargeID    string              `json:"chargeId"`
	Replayed    bool                `json:"replayed"`
}

type PaymentService struct {
	repo         domain.PaymentRepository
	gateway      payment.Gateway
	attempts     domain.AttemptStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	cfg          PaymentConfig
	inflight     keyLocks
	logger       *zerolog.Logger
}

func NewPaymentService(repo domain.PaymentRepository, gateway payment.Gateway, attempts domain.AttemptStore, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, cfg PaymentConfig, logger *zerolog.Logger) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.AttemptLimit <= 0 {
		cfg.AttemptLimit = 10
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PaymentService{
		repo:         repo,
		gateway:      gateway,
		attempts:     attempts,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		cfg:          cfg,
		logger:       logger,
	}
}

type order struct {
	booking  *models.Booking
	vendorID int64
	items    []models.LineItem
	subtotal decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
}

// ProcessPayment charges the caller's card for a rental booking and/or purchases,
// confirms the booking and records the transaction.
func (s *PaymentService) ProcessPayment(ctx context.Context, caller models.Principal, req PaymentRequest) (*PaymentResult, error) {
	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = s.cfg.Currency
	}
	if req.Token == "" {
		return nil, invalid("card token is required")
	}
	if req.BookingID == 0 && len(req.Items) == 0 {
		return nil, invalid("nothing to pay for")
	}

	if err := s.checkRateLimit(ctx, caller.UserID); err != nil {
		return nil, err
	}

	// A booking is paid at most once: without a client key the booking id is the key.
	if req.IdempotencyKey == "" && req.BookingID != 0 {
		req.IdempotencyKey = "booking:" + strconv.FormatInt(req.BookingID, 10)
	}
	defer s.inflight.lock(inflightKey(caller.UserID, req))()

	var attempt *models.PaymentAttempt
	if req.IdempotencyKey != "" && s.attempts != nil {
		a, err := s.attempts.GetAttempt(ctx, attemptKey(caller.UserID, req.IdempotencyKey))
		if err != nil {
			s.logger.Warn().Err(err).Msg("payment attempt lookup failed")
		}
		attempt = a
	}

	if attempt != nil {
		txn, err := s.repo.GetTransactionByCharge(ctx, attempt.ChargeID)
		if err == nil {
			return &PaymentResult{Transaction: txn, ChargeID: attempt.ChargeID, Replayed: true}, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}

	o, err := s.buildOrder(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	minor := pricing.MinorUnits(o.total)
	if pricing.MinorUnits(req.Amount) != minor {
		return nil, fmt.Errorf("%w: expected %s", ErrAmountMismatch, o.total.StringFixed(2))
	}

	var charge *payment.Charge
	if attempt != nil {
		if attempt.Amount != minor || attempt.BookingID != req.BookingID || attempt.Currency != req.Currency {
			return nil, fmt.Errorf("%w: idempotency key %q was charged %d %s for booking %d",
				ErrAmountMismatch, req.IdempotencyKey, attempt.Amount, attempt.Currency, attempt.BookingID)
		}
		charge = &payment.Charge{ID: attempt.ChargeID, Status: payment.StatusSuccessful, Amount: attempt.Amount, Currency: attempt.Currency}
	} else {
		charge, err = s.charge(ctx, caller, req, o, minor)
		if err != nil {
			return nil, err
		}
	}

	txn := s.newTransaction(caller, o, charge, req.Currency)
	var bookingVersion int64
	if o.booking != nil {
		bookingVersion = o.booking.Version
	}

	if err := s.repo.RecordPayment(ctx, txn, bookingVersion); err != nil {
		if existing, lookupErr := s.repo.GetTransactionByCharge(ctx, charge.ID); lookupErr == nil {
			return &PaymentResult{Transaction: existing, ChargeID: charge.ID, Replayed: true}, nil
		}
		s.scheduleReconcile(ctx, txn)
		return nil, fmt.Errorf("record payment for charge %s: %w", charge.ID, err)
	}

	s.logger.Info().
		Str("charge_id", charge.ID).
		Int64("transaction_id", txn.ID).
		Int64("buyer_id", caller.UserID).
		Str("total", txn.Total.StringFixed(2)).
		Msg("payment recorded")

	s.afterPayment(ctx, txn, o.booking)
	return &PaymentResult{Transaction: txn, ChargeID: charge.ID}, nil
}

// ReconcilePayment completes the local writes of a charge that already succeeded.
// The payload is the JSON transaction stored with the reconcile task.
func (s *PaymentService) ReconcilePayment(ctx context.Context, payload string) error {
	var txn models.Transaction
	if err := json.Unmarshal([]byte(payload), &txn); err != nil {
		return fmt.Errorf("decode reconcile payload: %w", err)
	}
	chargeID := txn.PaymentResult.ChargeID

	if _, err := s.repo.GetTransactionByCharge(ctx, chargeID); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	var (
		booking *models.Booking
		version int64
	)
	if txn.BookingID != nil {
		b, err := s.repo.GetBooking(ctx, *txn.BookingID)
		if err != nil {
			return fmt.Errorf("load booking %d: %w", *txn.BookingID, err)
		}
		if b.Status != models.StatusPending {
			return fmt.Errorf("%w: booking %d is %s, charge %s needs a manual refund", ErrInvalidTransition, b.ID, b.Status, chargeID)
		}
		booking, version = b, b.Version
	}

	if err := s.repo.RecordPayment(ctx, &txn, version); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.logger.Info().Str("charge_id", chargeID).Int64("transaction_id", txn.ID).Msg("payment reconciled")
	s.afterPayment(ctx, &txn, booking)
	return nil
}

// HandleWebhook processes a processor event by id. The event is fetched back from
// the processor, so the request body is never trusted.
func (s *PaymentService) HandleWebhook(ctx context.Context, eventID string) error {
	if eventID == "" {
		return invalid("event id is required")
	}
	ev, err := s.gateway.RetrieveEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if ev.Key != payment.EventChargeComplete || ev.Charge == nil {
		s.logger.Debug().Str("event_id", eventID).Str("key", ev.Key).Msg("webhook event ignored")
		return nil
	}

	charge := ev.Charge
	bookingID, hasBooking := charge.MetadataInt("booking_id")
	buyerID, _ := charge.MetadataInt("buyer_id")

	if !charge.Successful() {
		s.publishPayment(events.EventPaymentFailed, events.PaymentEventPayload{
			ChargeID:  charge.ID,
			BuyerID:   buyerID,
			BookingID: bookingID,
			Currency:  charge.Currency,
			Reason:    firstNonEmpty(charge.FailureMessage, charge.FailureCode, charge.Status),
		})
		return nil
	}

	if _, err := s.repo.GetTransactionByCharge(ctx, charge.ID); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if !hasBooking {
		s.logger.Warn().Str("charge_id", charge.ID).Msg("webhook charge has no booking metadata")
		return nil
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return nil
	}
	product, err := s.repo.GetProduct(ctx, booking.ProductID)
	if err != nil {
		return err
	}

	o := &order{booking: booking, vendorID: product.VendorID, items: []models.LineItem{rentalLine(booking)}}
	o.subtotal, o.tax, o.total = pricing.Totals(o.items)
	if pricing.MinorUnits(o.total) != charge.Amount {
		return fmt.Errorf("%w: charge %s is %d, booking total %s", ErrAmountMismatch, charge.ID, charge.Amount, o.total.StringFixed(2))
	}

	buyer := models.Principal{UserID: booking.UserID, Email: booking.UserEmail}
	txn := s.newTransaction(buyer, o, charge, charge.Currency)
	if err := s.repo.RecordPayment(ctx, txn, booking.Version); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	s.afterPayment(ctx, txn, booking)
	return nil
}

// ListTransactions returns the caller's transactions, or every transaction for admins when all is set.
func (s *PaymentService) ListTransactions(ctx context.Context, caller models.Principal, all bool) ([]*models.Transaction, error) {
	if all {
		if !caller.IsAdmin() {
			return nil, ErrForbidden
		}
		return s.repo.ListTransactions(ctx, 0)
	}
	return s.repo.ListTransactions(ctx, caller.UserID)
}

func (s *PaymentService) buildOrder(ctx context.Context, caller models.Principal, req PaymentRequest) (*order, error) {
	o := &order{}

	if req.BookingID != 0 {
		booking, err := s.repo.GetBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != caller.UserID {
			return nil, ErrForbidden
		}
		if booking.Status != models.StatusPending {
			return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
		}
		product, err := s.repo.GetProduct(ctx, booking.ProductID)
		if err != nil {
			return nil, err
		}
		o.booking = booking
		o.vendorID = product.VendorID
		o.items = append(o.items, rentalLine(booking))
	}

	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		product, err := s.repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Purchasable() {
			return nil, invalid("product %d is not for sale", product.ID)
		}
		if product.CountInStock < it.Quantity {
			return nil, fmt.Errorf("product %d: %w", product.ID, database.ErrInsufficientStock)
		}
		if o.vendorID == 0 {
			o.vendorID = product.VendorID
		}
		o.items = append(o.items, models.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  it.Quantity,
			UnitPrice: product.SalePrice.Decimal,
		})
	}

	o.subtotal, o.tax, o.total = pricing.Totals(o.items)
	return o, nil
}

func (s *PaymentService) charge(ctx context.Context, caller models.Principal, req PaymentRequest, o *order, minor int64) (*payment.Charge, error) {
	metadata := map[string]interface{}{"buyer_id": caller.UserID}
	if o.booking != nil {
		metadata["booking_id"] = o.booking.ID
	}
	if req.IdempotencyKey != "" {
		metadata["idempotency_key"] = req.IdempotencyKey
	}

	charge, err := s.gateway.CreateCharge(ctx, payment.ChargeRequest{
		Amount:      minor,
		Currency:    req.Currency,
		Token:       req.Token,
		Description: describeOrder(o),
		Metadata:    metadata,
	})
	if err != nil {
		payload := events.PaymentEventPayload{BuyerID: caller.UserID, Total: o.total, Currency: req.Currency, Reason: err.Error()}
		if charge != nil {
			payload.ChargeID = charge.ID
		}
		if o.booking != nil {
			payload.BookingID = o.booking.ID
		}
		s.publishPayment(events.EventPaymentFailed, payload)
		s.logger.Warn().Err(err).Int64("buyer_id", caller.UserID).Msg("charge failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if req.IdempotencyKey != "" && s.attempts != nil {
		attempt := &models.PaymentAttempt{
			Key:       attemptKey(caller.UserID, req.IdempotencyKey),
			UserID:    caller.UserID,
			ChargeID:  charge.ID,
			Amount:    minor,
			Currency:  req.Currency,
			CreatedAt: time.Now().UTC(),
		}
		if o.booking != nil {
			attempt.BookingID = o.booking.ID
		}
		if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
			s.logger.Warn().Err(err).Str("charge_id", charge.ID).Msg("save payment attempt failed")
		}
	}
	return charge, nil
}

func (s *PaymentService) newTransaction(buyer models.Principal, o *order, charge *payment.Charge, currency string) *models.Transaction {
	txnType := models.TransactionPurchase
	var bookingID *int64
	if o.booking != nil {
		txnType = models.TransactionRental
		id := o.booking.ID
		bookingID = &id
	}
	return &models.Transaction{
		BuyerID:  buyer.UserID,
		VendorID: o.vendorID,
		Items:    o.items,
		PaymentResult: models.PaymentResult{
			ChargeID: charge.ID,
			Status:   charge.Status,
			Email:    buyer.Email,
			Amount:   charge.Amount,
			Currency: firstNonEmpty(charge.Currency, currency),
		},
		Subtotal:  o.subtotal,
		Tax:       o.tax,
		Total:     o.total,
		IsPaid:    true,
		Type:      txnType,
		BookingID: bookingID,
	}
}

func (s *PaymentService) afterPayment(ctx context.Context, txn *models.Transaction, booking *models.Booking) {
	payload := events.PaymentEventPayload{
		ChargeID:      txn.PaymentResult.ChargeID,
		TransactionID: txn.ID,
		BuyerID:       txn.BuyerID,
		Total:         txn.Total,
		Currency:      txn.PaymentResult.Currency,
	}
	if booking != nil {
		payload.BookingID = booking.ID
	}
	s.publishPayment(events.EventPaymentSucceeded, payload)

	if booking == nil {
		return
	}
	confirmed, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("reload confirmed booking")
		return
	}
	publishBookingEvent(s.eventBus, s.logger, events.EventBookingConfirmed, confirmed, "payment", txn.BuyerID)
	enqueueSheets(ctx, s.sheetsWorker, s.logger, models.TaskSheetsUpsert, confirmed)
}

func (s *PaymentService) scheduleReconcile(ctx context.Context, txn *models.Transaction) {
	raw, err := json.Marshal(txn)
	if err != nil {
		s.logger.Error().Err(err).Str("charge_id", txn.PaymentResult.ChargeID).Msg("encode reconcile payload")
		return
	}
	task := &models.SyncTask{
		TaskType: models.TaskReconcilePayment,
		Payload:  string(raw),
		Status:   models.SyncPending,
	}
	if txn.BookingID != nil {
		task.BookingID = *txn.BookingID
	}
	if err := s.repo.CreateSyncTask(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("charge_id", txn.PaymentResult.ChargeID).Msg("schedule reconcile failed")
		return
	}
	s.logger.Warn().Str("charge_id", txn.PaymentResult.ChargeID).Int64("task_id", task.ID).Msg("payment scheduled for reconciliation")
}

func (s *PaymentService) checkRateLimit(ctx context.Context, userID int64) error {
	if s.attempts == nil {
		return nil
	}
	allowed, err := s.attempts.CheckRateLimit(ctx, "payment:"+strconv.FormatInt(userID, 10), s.cfg.AttemptLimit, s.cfg.AttemptWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("payment rate limit check failed")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func (s *PaymentService) publishPayment(eventType string, payload events.PaymentEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func rentalLine(b *models.Booking) models.LineItem {
	return models.LineItem{
		ProductID: b.ProductID,
		Name:      b.ProductName,
		Quantity:  1,
		UnitPrice: b.TotalPrice,
		IsRental:  true,
	}
}

func describeOrder(o *order) string {
	names := make([]string, 0, len(o.items))
	for _, it := range o.items {
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

func attemptKey(userID int64, key string) string {
	return strconv.FormatInt(userID, 10) + ":" + key
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
