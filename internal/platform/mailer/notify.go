package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/diagnosis/festa-decor/internal/domain"
)

// Notifier composes the site's emails on top of a transport.
type Notifier struct {
	svc      Service
	notifyTo string
}

func NewNotifier(svc Service, notifyTo string) *Notifier {
	return &Notifier{svc: svc, notifyTo: notifyTo}
}

// Inquiry tells the business about a new contact-form submission. It is a
// no-op when no recipient is configured.
func (n *Notifier) Inquiry(ctx context.Context, in domain.Inquiry) error {
	if n.notifyTo == "" {
		return nil
	}
	subject := fmt.Sprintf("New inquiry from %s", in.Name)
	text := fmt.Sprintf("Name: %s\nEmail: %s\nMobile: %s\nOccasion: %s\nEvent date: %s\n\n%s",
		in.Name, in.Email, in.Mobile, in.Occasion, in.EventDate, in.Message)
	body := fmt.Sprintf(`<p><b>%s</b> (%s, %s) asked about <b>%s</b> on %s.</p><p>%s</p>`,
		html.EscapeString(in.Name), html.EscapeString(in.Email), html.EscapeString(in.Mobile),
		html.EscapeString(in.Occasion), html.EscapeString(in.EventDate), html.EscapeString(in.Message))

	_, err := n.svc.Send(ctx, Message{ToEmail: n.notifyTo, Subject: subject, Text: text, HTML: body})
	return err
}

func (n *Notifier) BookingReceived(ctx context.Context, b domain.Booking) error {
	if b.Email == "" {
		return nil
	}
	title := b.EventTitle
	if title == "" {
		title = "your event"
	}
	subject := "We received your booking"
	text := fmt.Sprintf("Hi %s,\n\nThanks for booking %s on %s. Reference: %s.\nWe will be in touch shortly.",
		b.Name, title, b.EventDate, b.ID)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Thanks for booking <b>%s</b> on %s.</p><p>Reference: <code>%s</code></p>`,
		html.EscapeString(b.Name), html.EscapeString(title), html.EscapeString(b.EventDate), html.EscapeString(b.ID))

	_, err := n.svc.Send(ctx, Message{ToEmail: b.Email, ToName: b.Name, Subject: subject, Text: text, HTML: body})
	return err
}
