package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"velorent/internal/service"

	"github.com/shopspring/decimal"
)

const headerIdempotencyKey = "Idempotency-Key"

type purchaseItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0,lte=100"`
}

type paymentRequest struct {
	Token          string                `json:"token" validate:"required"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency" validate:"omitempty,len=3"`
	BookingID      int64                 `json:"bookingId" validate:"gte=0"`
	Items          []purchaseItemRequest `json:"items" validate:"omitempty,max=50,dive"`
	IdempotencyKey string                `json:"idempotencyKey" validate:"omitempty,max=128"`
}

// webhookRequest is the subset of the processor's event envelope we read.
type webhookRequest struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

func (s *HTTPServer) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if key == "" {
		key = req.IdempotencyKey
	}
	items := make([]service.PurchaseItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.PurchaseItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := s.deps.Payments.ProcessPayment(r.Context(), s.caller(r), service.PaymentRequest{
		Token:          req.Token,
		Amount:         req.Amount,
		Currency:       req.Currency,
		BookingID:      req.BookingID,
		Items:          items,
		IdempotencyKey: key,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (s *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "event id is required")
		return
	}
	client, _ := r.Context().Value(apiClientKey).(string)
	s.logger.Info().Str("event_id", req.ID).Str("key", req.Key).Str("client", client).Msg("payment webhook received")

	if err := s.deps.Payments.HandleWebhook(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (s *HTTPServer) handleMyTransactions(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, false)
}

func (s *HTTPServer) handleAllTransactions(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, true)
}

func (s *HTTPServer) listTransactions(w http.ResponseWriter, r *http.Request, all bool) {
	txns, err := s.deps.Payments.ListTransactions(r.Context(), s.caller(r), all)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}
