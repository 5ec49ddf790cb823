package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"velorent/internal/events"
	"velorent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const queueSize = 256

// TelegramNotifier relays domain events to the manager chats.
// Messages are queued by bus handlers and delivered by Run.
type TelegramNotifier struct {
	sender   Sender
	managers []int64
	queue    chan tgbotapi.MessageConfig
	logger   *zerolog.Logger
}

// NewBotSender connects to the Bot API with the given token.
func NewBotSender(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return bot, nil
}

func NewTelegramNotifier(sender Sender, managers []int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "telegram-notifier").Logger()
	return &TelegramNotifier{
		sender:   sender,
		managers: managers,
		queue:    make(chan tgbotapi.MessageConfig, queueSize),
		logger:   &l,
	}
}

// Attach subscribes the notifier to the events managers care about.
func (n *TelegramNotifier) Attach(bus *events.EventBus) {
	for _, t := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
	} {
		bus.Subscribe(t, n.handleBooking)
	}
	bus.Subscribe(events.EventPaymentSucceeded, n.handlePayment)
	bus.Subscribe(events.EventPaymentFailed, n.handlePayment)
	bus.Subscribe(events.EventFeedbackCreated, n.handleFeedback)
}

// Run delivers queued messages until ctx is done.
func (n *TelegramNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			if _, err := n.sender.Send(msg); err != nil {
				n.logger.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("telegram send failed")
			}
		}
	}
}

func (n *TelegramNotifier) handleBooking(event *events.Event) error {
	var p events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("decode booking payload")
		return nil
	}
	n.broadcast(FormatBooking(event.Type, p))
	return nil
}

func (n *TelegramNotifier) handlePayment(event *events.Event) error {
	var p events.PaymentEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("decode payment payload")
		return nil
	}
	n.broadcast(FormatPayment(event.Type, p))
	return nil
}

func (n *TelegramNotifier) handleFeedback(event *events.Event) error {
	var p events.FeedbackEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("decode feedback payload")
		return nil
	}
	n.broadcast(FormatFeedback(p))
	return nil
}

func (n *TelegramNotifier) broadcast(text string) {
	for _, chatID := range n.managers {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		select {
		case n.queue <- msg:
		default:
			n.logger.Warn().Int64("chat_id", chatID).Msg("notification queue full, message dropped")
		}
	}
}

func FormatBooking(eventType string, p events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "🆕 *New booking*"
	case events.EventBookingConfirmed:
		title = "✅ *Booking confirmed*"
	case events.EventBookingCancelled:
		title = "❌ *Booking cancelled*"
	default:
		title = "*Booking " + escape(p.Status) + "*"
	}

	var b strings.Builder
	b.WriteString(title)
	fmt.Fprintf(&b, " #%d\n", p.BookingID)
	fmt.Fprintf(&b, "Product: %s\n", escape(p.ProductName))
	fmt.Fprintf(&b, "Renter: %s\n", escape(p.UserName))
	fmt.Fprintf(&b, "Dates: %s – %s\n", p.StartDate.Format(models.DateLayout), p.EndDate.Format(models.DateLayout))
	fmt.Fprintf(&b, "Total: %s", p.TotalPrice.StringFixed(2))
	if p.ChangedBy != "" {
		fmt.Fprintf(&b, "\nBy: %s", escape(p.ChangedBy))
	}
	return b.String()
}

func FormatPayment(eventType string, p events.PaymentEventPayload) string {
	currency := strings.ToUpper(p.Currency)
	if eventType == events.EventPaymentFailed {
		text := fmt.Sprintf("⚠️ *Payment failed* for buyer %d: %s %s", p.BuyerID, p.Total.StringFixed(2), currency)
		if p.Reason != "" {
			text += "\nReason: " + escape(p.Reason)
		}
		return text
	}
	text := fmt.Sprintf("💳 *Payment received*: %s %s from buyer %d", p.Total.StringFixed(2), currency, p.BuyerID)
	if p.BookingID != 0 {
		text += fmt.Sprintf("\nBooking #%d", p.BookingID)
	}
	return text
}

func FormatFeedback(p events.FeedbackEventPayload) string {
	return fmt.Sprintf("📝 *New feedback* #%d (%s, %s)\nFrom: %s\nSubject: %s",
		p.FeedbackID, escape(p.Type), escape(p.Priority), escape(p.UserName), escape(p.Subject))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
