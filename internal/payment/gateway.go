package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

const (
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusPending    = "pending"

	EventChargeComplete = "charge.complete"
)

// ErrDeclined is returned when the processor answered but refused the charge.
var ErrDeclined = errors.New("charge declined")

type ChargeRequest struct {
	Amount      int64
	Currency    string
	Token       string
	Description string
	Metadata    map[string]interface{}
}

type Charge struct {
	ID             string
	Status         string
	Amount         int64
	Currency       string
	FailureCode    string
	FailureMessage string
	Metadata       map[string]interface{}
}

// Successful reports whether the funds were captured.
func (c *Charge) Successful() bool {
	return c != nil && c.Status == StatusSuccessful
}

// MetadataInt reads an integer metadata value; the processor echoes numbers back as floats or strings.
func (c *Charge) MetadataInt(key string) (int64, bool) {
	if c == nil || c.Metadata == nil {
		return 0, false
	}
	switch v := c.Metadata[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (c *Charge) MetadataString(key string) string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[key].(string)
	return s
}

type Event struct {
	ID     string
	Key    string
	Charge *Charge
}

// Gateway is the card processor.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	RetrieveCharge(ctx context.Context, id string) (*Charge, error)
	RetrieveEvent(ctx context.Context, id string) (*Event, error)
}

// OmiseGateway charges cards through the Omise API.
type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &OmiseGateway{client: client}, nil
}

func (g *OmiseGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.Amount <= 0 || req.Token == "" || req.Currency == "" {
		return nil, errors.New("invalid charge params")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Card:        req.Token,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := g.client.Do(ch, op); err != nil {
		return nil, err
	}

	out := fromOmise(ch)
	if out.Status == StatusFailed {
		return out, fmt.Errorf("%w: %s", ErrDeclined, firstNonEmpty(out.FailureMessage, out.FailureCode))
	}
	return out, nil
}

func (g *OmiseGateway) RetrieveCharge(ctx context.Context, id string) (*Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := &omise.Charge{}
	if err := g.client.Do(ch, &operations.RetrieveCharge{ChargeID: id}); err != nil {
		return nil, err
	}
	return fromOmise(ch), nil
}

// RetrieveEvent re-fetches a webhook event so unsigned callbacks cannot forge a charge.
func (g *OmiseGateway) RetrieveEvent(ctx context.Context, id string) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev := &omise.Event{}
	if err := g.client.Do(ev, &operations.RetrieveEvent{EventID: id}); err != nil {
		return nil, err
	}

	out := &Event{ID: ev.ID, Key: ev.Key}
	if ev.Key == EventChargeComplete {
		raw, err := json.Marshal(ev.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
		var ch omise.Charge
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		out.Charge = fromOmise(&ch)
	}
	return out, nil
}

func fromOmise(ch *omise.Charge) *Charge {
	out := &Charge{
		ID:       ch.ID,
		Status:   string(ch.Status),
		Amount:   ch.Amount,
		Currency: ch.Currency,
		Metadata: ch.Metadata,
	}
	if ch.FailureCode != nil {
		out.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		out.FailureMessage = *ch.FailureMessage
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "unknown reason"
}
