package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int
	bus.Subscribe("test_event", func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	require.NoError(t, bus.PublishJSON("test_event", map[string]string{"foo": "bar"}))
	require.NoError(t, bus.PublishJSON("other_event", map[string]string{}))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, "test_event", received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	var seen []string
	bus.SubscribeAll(func(event *Event) error {
		seen = append(seen, event.Type)
		return errors.New("ignored")
	})

	require.NoError(t, bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 1}))
	require.NoError(t, bus.PublishJSON(EventPaymentSucceeded, PaymentEventPayload{ChargeID: "chrg"}))
	assert.Equal(t, []string{EventBookingCreated, EventPaymentSucceeded}, seen)
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON("x", 1))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.PublishJSON("x", make(chan int)))
}

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPForwarder(t *testing.T) {
	ch := &fakeChannel{}
	fwd := newAMQPForwarder(ch, "velorent.events", nil)
	bus := NewEventBus()
	fwd.Attach(bus)

	require.NoError(t, bus.PublishJSON(EventBookingConfirmed, BookingEventPayload{BookingID: 9, Status: "confirmed"}))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "velorent.booking_confirmed", ch.keys[0])
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, EventBookingConfirmed, msg.Type)
	assert.NotEmpty(t, msg.MessageId)

	var payload BookingEventPayload
	require.NoError(t, json.Unmarshal(msg.Body, &payload))
	assert.Equal(t, int64(9), payload.BookingID)

	ch.err = errors.New("channel closed")
	assert.Error(t, fwd.Handle(&Event{Type: EventBookingCreated}))

	require.NoError(t, fwd.Close())
	assert.True(t, ch.closed)
}
