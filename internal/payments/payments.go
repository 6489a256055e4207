// Package payments takes booking payments through Stripe PaymentIntents.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventSucceeded = "payment_intent.succeeded"
	EventFailed    = "payment_intent.payment_failed"

	metadataBookingID = "booking_id"
)

var (
	ErrNotPayable     = errors.New("booking is not payable")
	ErrInvalidWebhook = errors.New("invalid webhook signature or payload")
	ErrNotConfigured  = errors.New("payments are not configured")
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type WebhookEvent struct {
	Type      string
	IntentID  string
	BookingID string
	Amount    int64
	Currency  string
	Status    string
}

type Gateway interface {
	CreateIntent(ctx context.Context, b domain.Booking) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
	PublishableKey() string
}

// MinorUnits converts a display amount to the currency's smallest unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type StripeGateway struct {
	api            *client.API
	currency       string
	webhookSecret  string
	publishableKey string
}

func NewStripeGateway(secretKey, publishableKey, webhookSecret, currency string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{
		api:            api,
		currency:       strings.ToLower(currency),
		webhookSecret:  webhookSecret,
		publishableKey: publishableKey,
	}, nil
}

func (g *StripeGateway) PublishableKey() string {
	return g.publishableKey
}

func (g *StripeGateway) CreateIntent(ctx context.Context, b domain.Booking) (*Intent, error) {
	if !b.Payable() {
		return nil, ErrNotPayable
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(b.Amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if b.Email != "" {
		params.ReceiptEmail = stripe.String(b.Email)
	}
	params.Context = ctx
	params.AddMetadata(metadataBookingID, b.ID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the intent.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	return fromStripeEvent(event)
}

func fromStripeEvent(event stripe.Event) (*WebhookEvent, error) {
	ev := &WebhookEvent{Type: string(event.Type)}
	if !strings.HasPrefix(ev.Type, "payment_intent.") || event.Data == nil {
		return ev, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	ev.IntentID = pi.ID
	ev.BookingID = pi.Metadata[metadataBookingID]
	ev.Amount = pi.Amount
	ev.Currency = string(pi.Currency)
	ev.Status = string(pi.Status)
	return ev, nil
}
