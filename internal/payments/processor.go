package payments

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

// Recorder reports a confirmed payment to the backend.
type Recorder interface {
	RecordPayment(ctx context.Context, bookingID string, rec domain.PaymentRecord) error
}

// Processor applies verified webhook events.
type Processor struct {
	gateway   Gateway
	recorder  Recorder
	publisher events.Publisher
}

func NewProcessor(gw Gateway, rec Recorder, pub events.Publisher) *Processor {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Processor{gateway: gw, recorder: rec, publisher: pub}
}

// HandleWebhook verifies and applies one webhook delivery. Event types other
// than intent success or failure are acknowledged and ignored.
func (p *Processor) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	ev, err := p.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	var subject string
	switch ev.Type {
	case EventSucceeded:
		subject = events.PaymentSucceeded
	case EventFailed:
		subject = events.PaymentFailed
	default:
		logger.DebugContext(ctx, "Ignoring webhook event", "type", ev.Type)
		return ev, nil
	}

	if ev.BookingID == "" {
		logger.WarnContext(ctx, "Payment intent without booking id", "intent_id", ev.IntentID)
		return ev, nil
	}

	if ev.Type == EventSucceeded {
		rec := domain.PaymentRecord{
			IntentID: ev.IntentID,
			Amount:   ev.Amount,
			Currency: ev.Currency,
			Status:   ev.Status,
		}
		if err := p.recorder.RecordPayment(ctx, ev.BookingID, rec); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Payment recorded", "booking_id", ev.BookingID, "intent_id", ev.IntentID)
	}

	msg := events.PaymentEvent{
		BookingID: ev.BookingID,
		IntentID:  ev.IntentID,
		Amount:    ev.Amount,
		Currency:  ev.Currency,
		Status:    ev.Status,
	}
	if err := p.publisher.Publish(ctx, subject, msg); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment event", "error", err)
	}
	return ev, nil
}
