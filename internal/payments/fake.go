package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/diagnosis/festa-decor/internal/domain"
)

// Fake is an in-memory Gateway for tests and local runs without Stripe keys.
// Webhook payloads are plain JSON WebhookEvent values and the signature must
// equal Secret.
type Fake struct {
	Secret string

	mu      sync.Mutex
	intents []Intent
}

func (f *Fake) CreateIntent(_ context.Context, b domain.Booking) (*Intent, error) {
	if !b.Payable() {
		return nil, ErrNotPayable
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	in := Intent{
		ID:           fmt.Sprintf("pi_fake_%d", len(f.intents)+1),
		ClientSecret: fmt.Sprintf("pi_fake_%d_secret", len(f.intents)+1),
		Amount:       MinorUnits(b.Amount),
		Currency:     "inr",
	}
	f.intents = append(f.intents, in)
	return &in, nil
}

func (f *Fake) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if signature != f.Secret {
		return nil, ErrInvalidWebhook
	}
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	return &ev, nil
}

func (f *Fake) PublishableKey() string {
	return "pk_test_fake"
}

func (f *Fake) Intents() []Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Intent(nil), f.intents...)
}
