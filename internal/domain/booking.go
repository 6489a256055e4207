package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCanceled  BookingStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

type Booking struct {
	ID            string        `json:"id"`
	EventID       string        `json:"eventId"`
	EventTitle    string        `json:"eventTitle,omitempty"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Mobile        string        `json:"mobile"`
	EventDate     string        `json:"eventDate"`
	Venue         string        `json:"venue,omitempty"`
	Guests        int           `json:"guests,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Amount        float64       `json:"amount"`
	Status        BookingStatus `json:"status,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitempty"`
}

func (b Booking) Payable() bool {
	return b.PaymentStatus != PaymentPaid && b.Status != BookingCanceled && b.Amount > 0
}

type BookingRequest struct {
	EventID   string `json:"eventId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	EventDate string `json:"eventDate"`
	Venue     string `json:"venue,omitempty"`
	Guests    int    `json:"guests,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// PaymentRecord is what the front-end reports to the backend once the
// gateway confirms a payment.
type PaymentRecord struct {
	IntentID string `json:"intentId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}
