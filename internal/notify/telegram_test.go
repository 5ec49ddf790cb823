package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"velorent/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func TestNotifierBroadcastsBookingEvents(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, []int64{100, 200}, nil)
	bus := events.NewEventBus()
	n.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:   3,
		UserName:    "Ann",
		ProductName: "Trek_FX",
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		TotalPrice:  decimal.NewFromInt(200),
	}))

	assert.Eventually(t, func() bool { return len(sender.messages()) == 2 }, time.Second, 5*time.Millisecond)

	msgs := sender.messages()
	assert.ElementsMatch(t, []int64{100, 200}, []int64{msgs[0].ChatID, msgs[1].ChatID})
	assert.Contains(t, msgs[0].Text, "New booking")
	assert.Contains(t, msgs[0].Text, `Trek\_FX`)
	assert.Contains(t, msgs[0].Text, "2026-03-02")
	assert.Contains(t, msgs[0].Text, "200.00")
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
}

func TestNotifierIgnoresUnsubscribedEvents(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, []int64{1}, nil)
	bus := events.NewEventBus()
	n.Attach(bus)

	require.NoError(t, bus.PublishJSON(events.EventBookingDeleted, events.BookingEventPayload{BookingID: 1}))
	assert.Len(t, n.queue, 0)

	require.NoError(t, bus.PublishJSON(events.EventFeedbackCreated, events.FeedbackEventPayload{FeedbackID: 4, Subject: "Flat tyre"}))
	assert.Len(t, n.queue, 1)
}

func TestNotifierSurvivesSendErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	n := NewTelegramNotifier(sender, []int64{1}, nil)
	bus := events.NewEventBus()
	n.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	require.NoError(t, bus.PublishJSON(events.EventPaymentFailed, events.PaymentEventPayload{BuyerID: 7, Reason: "card declined"}))
	require.NoError(t, bus.PublishJSON(events.EventPaymentSucceeded, events.PaymentEventPayload{BuyerID: 7, BookingID: 5}))

	assert.Eventually(t, func() bool { return len(sender.messages()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestNotifierDropsWhenQueueFull(t *testing.T) {
	n := NewTelegramNotifier(&fakeSender{}, []int64{1}, nil)
	for i := 0; i < queueSize+10; i++ {
		n.broadcast("x")
	}
	assert.Len(t, n.queue, queueSize)
}

func TestFormatPayment(t *testing.T) {
	ok := FormatPayment(events.EventPaymentSucceeded, events.PaymentEventPayload{
		BuyerID: 7, BookingID: 5, Total: decimal.NewFromInt(230), Currency: "thb",
	})
	assert.Contains(t, ok, "230.00 THB")
	assert.Contains(t, ok, "Booking #5")

	failed := FormatPayment(events.EventPaymentFailed, events.PaymentEventPayload{BuyerID: 7, Reason: "insufficient_fund"})
	assert.Contains(t, failed, "Payment failed")
	assert.Contains(t, failed, `insufficient\_fund`)
}

func TestFormatBookingChangedBy(t *testing.T) {
	text := FormatBooking(events.EventBookingCancelled, events.BookingEventPayload{BookingID: 9, ChangedBy: "admin"})
	assert.Contains(t, text, "Booking cancelled")
	assert.Contains(t, text, "#9")
	assert.Contains(t, text, "By: admin")
}
