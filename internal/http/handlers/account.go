package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/internal/utils"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.api.Users.Profile(r.Context())
	if err != nil {
		// the profile endpoint is optional on older backends
		logger.WarnContext(r.Context(), "Profile unavailable, using session user", "error", err)
		u = currentSession(r).Get().User
	}
	h.page(w, r, "profile", web.PageData{Title: "My profile", Data: u})
}

func (h *Handlers) Bookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.Bookings.Mine(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "bookings", web.PageData{Title: "My bookings", Data: list})
}

var bookingFields = []string{"name", "email", "mobile", "eventDate", "venue", "guests", "notes"}

// prefill uses the remembered name and mobile, which survive logout, then
// the session user.
func prefill(ctx context.Context, u *domain.User) map[string]string {
	form := map[string]string{}
	if kv := storage.FromContext(ctx); kv != nil {
		if v, ok, _ := kv.Get(ctx, storage.KeyUserName); ok {
			form["name"] = v
		}
		if v, ok, _ := kv.Get(ctx, storage.KeyUserMobile); ok {
			form["mobile"] = v
		}
	}
	if u != nil {
		if form["name"] == "" {
			form["name"] = u.DisplayName()
		}
		if form["mobile"] == "" {
			form["mobile"] = u.Mobile
		}
		form["email"] = u.Email
	}
	return form
}

func (h *Handlers) BookPage(w http.ResponseWriter, r *http.Request) {
	e, err := h.api.Events.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "book", web.PageData{
		Title: "Book " + e.DisplayTitle(),
		Form:  prefill(r.Context(), currentSession(r).Get().User),
		Data:  e,
	})
}

func validateBooking(form map[string]string, today time.Time) utils.FieldErrors {
	errs := utils.FieldErrors{}
	errs.Require("name", form["name"], "Name is required")
	errs.Require("email", form["email"], "Email is required")
	errs.Check("email", utils.IsValidEmail(form["email"]), "Enter a valid email address")
	errs.Check("mobile", utils.IsValidMobile(form["mobile"]), "Enter a 10-digit mobile number")
	errs.Require("eventDate", form["eventDate"], "Pick a date for your event")
	if d, err := time.Parse("2006-01-02", form["eventDate"]); form["eventDate"] != "" && (err != nil || d.Before(today.Truncate(24*time.Hour))) {
		errs.Check("eventDate", false, "Pick a date from today onwards")
	}
	if g := form["guests"]; g != "" {
		n, err := strconv.Atoi(g)
		errs.Check("guests", err == nil && n > 0, "Guests must be a positive number")
	}
	return errs
}

func bookingRequest(eventID string, form map[string]string) domain.BookingRequest {
	guests, _ := strconv.Atoi(form["guests"])
	return domain.BookingRequest{
		EventID:   eventID,
		Name:      form["name"],
		Email:     form["email"],
		Mobile:    form["mobile"],
		EventDate: form["eventDate"],
		Venue:     form["venue"],
		Guests:    guests,
		Notes:     form["notes"],
	}
}

func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	eventID := chi.URLParam(r, "eventID")
	form := formValues(r, bookingFields...)
	form["email"] = utils.NormalizeEmail(form["email"])
	form["mobile"] = utils.NormalizeMobile(form["mobile"])

	if errs := validateBooking(form, h.now()); !errs.Valid() {
		e, err := h.api.Events.Get(ctx, eventID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render.Render(w, r, http.StatusUnprocessableEntity, "book", web.PageData{
			Title: "Book " + e.DisplayTitle(), Form: form, Errors: errs, Data: e,
		})
		return
	}

	b, err := h.createBooking(ctx, bookingRequest(eventID, form))
	if err != nil {
		h.notify(w, r, web.Error, userMessage(err))
		h.redirect(w, r, "/book/"+eventID)
		return
	}

	h.notify(w, r, web.Success, "Booking created. Complete the payment to confirm it.")
	h.redirect(w, r, "/checkout/"+b.ID)
}

// createBooking is shared by the booking form and the JSON API.
func (h *Handlers) createBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	b, err := h.api.Bookings.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Booking created", "booking_id", b.ID, "event_id", b.EventID)

	if err := h.events.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: b.ID,
		EventID:   b.EventID,
		Email:     b.Email,
		Amount:    b.Amount,
		EventDate: b.EventDate,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking event", "error", err)
	}
	if h.notifier != nil {
		if err := h.notifier.BookingReceived(ctx, *b); err != nil {
			logger.WarnContext(ctx, "Failed to send booking email", "error", err)
		}
	}
	return b, nil
}

// cartSessionID returns the anonymous cart id, creating it on first use.
func cartSessionID(ctx context.Context) (string, error) {
	kv := storage.FromContext(ctx)
	if kv == nil {
		return "", fmt.Errorf("no client storage in context")
	}
	id, ok, err := kv.Get(ctx, storage.KeySessionID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := kv.Set(ctx, storage.KeySessionID, id); err != nil {
		return "", err
	}
	return id, nil
}

func (h *Handlers) Cart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := cartSessionID(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.api.Cart.Get(ctx, sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.page(w, r, "cart", web.PageData{Title: "My cart", Data: cart})
}

func quantityParam(r *http.Request) int {
	q, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil {
		q = domain.MinQuantity
	}
	return domain.ClampQuantity(q)
}

func (h *Handlers) CartAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sid, err := cartSessionID(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	eventID := r.PostFormValue("eventId")
	if eventID == "" {
		h.notify(w, r, web.Error, "Choose a decoration to add")
		h.redirect(w, r, "/events")
		return
	}

	err = h.api.Cart.Add(ctx, domain.CartAdd{SessionID: sid, EventID: eventID, Quantity: quantityParam(r)})
	if err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Success, "Added to cart")
	}
	h.redirect(w, r, "/cart")
}

func (h *Handlers) CartQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sid, err := cartSessionID(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.api.Cart.UpdateQuantity(ctx, sid, chi.URLParam(r, "itemID"), quantityParam(r)); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	}
	h.redirect(w, r, "/cart")
}

func (h *Handlers) CartRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := cartSessionID(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.api.Cart.Remove(ctx, sid, chi.URLParam(r, "itemID")); err != nil {
		h.notify(w, r, web.Error, userMessage(err))
	} else {
		h.notify(w, r, web.Info, "Removed from cart")
	}
	h.redirect(w, r, "/cart")
}

type checkoutData struct {
	Booking        *domain.Booking
	PublishableKey string
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	b, err := h.api.Bookings.Get(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !b.Payable() {
		h.notify(w, r, web.Info, "This booking has nothing left to pay.")
		h.redirect(w, r, "/bookings")
		return
	}
	if h.payments == nil {
		h.notify(w, r, web.Error, "Online payments are unavailable right now. We will contact you.")
		h.redirect(w, r, "/bookings")
		return
	}
	h.page(w, r, "checkout", web.PageData{
		Title: "Checkout",
		Data:  checkoutData{Booking: b, PublishableKey: h.payments.PublishableKey()},
	})
}
