package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("festa-web"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// Nop discards events. Used when NATS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }

// Subjects
const (
	SessionLogin    = "session.login"
	SessionRegister = "session.register"
	SessionLogout   = "session.logout"
	SessionExpired  = "session.expired"

	BookingCreated   = "booking.created"
	InquiryReceived  = "inquiry.received"
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
)

type SessionEvent struct {
	Type     string    `json:"type"`
	ClientID string    `json:"client_id,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role,omitempty"`
	At       time.Time `json:"at"`
}

type BookingCreatedEvent struct {
	BookingID string    `json:"booking_id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	Amount    float64   `json:"amount"`
	EventDate string    `json:"event_date"`
	CreatedAt time.Time `json:"created_at"`
}

type InquiryReceivedEvent struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	Occasion  string    `json:"occasion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentEvent struct {
	BookingID string `json:"booking_id"`
	IntentID  string `json:"intent_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}
