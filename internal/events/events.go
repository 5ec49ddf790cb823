package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventBookingDeleted   = "booking_deleted"

	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"

	EventFeedbackCreated   = "feedback_created"
	EventFeedbackResponded = "feedback_responded"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64           `json:"booking_id"`
	UserID      int64           `json:"user_id"`
	UserName    string          `json:"user_name"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Status      string          `json:"status"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ChangedBy   string          `json:"changed_by,omitempty"`
	ChangedByID int64           `json:"changed_by_id,omitempty"`
}

type PaymentEventPayload struct {
	ChargeID      string          `json:"charge_id"`
	TransactionID int64           `json:"transaction_id,omitempty"`
	BuyerID       int64           `json:"buyer_id"`
	BookingID     int64           `json:"booking_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Reason        string          `json:"reason,omitempty"`
}

type FeedbackEventPayload struct {
	FeedbackID int64  `json:"feedback_id"`
	UserID     int64  `json:"user_id"`
	UserName   string `json:"user_name"`
	Type       string `json:"type"`
	Subject    string `json:"subject"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

const wildcard = "*"

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.Subscribe(wildcard, handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[wildcard]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	ev, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&ev)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
