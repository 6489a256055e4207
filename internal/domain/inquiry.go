package domain

import "time"

// Inquiry is a contact-form submission.
type Inquiry struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	Occasion  string    `json:"occasion,omitempty"`
	EventDate string    `json:"eventDate,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
