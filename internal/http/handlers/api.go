package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/http/response"
	"github.com/diagnosis/festa-decor/internal/payments"
	"github.com/diagnosis/festa-decor/internal/utils"
	"github.com/diagnosis/festa-decor/pkg/auth"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

const maxWebhookBytes = 64 << 10

type intentRequest struct {
	BookingID string `json:"bookingId"`
}

type intentResponse struct {
	ClientSecret   string `json:"clientSecret"`
	IntentID       string `json:"intentId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PublishableKey string `json:"publishableKey"`
}

// writeBackendError maps a backend failure onto the JSON error envelope.
func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		response.WriteError(w, status, apiErr.Message, response.CodeBackendError)
		return
	}
	response.WriteError(w, http.StatusBadGateway, genericError, response.CodeBackendError)
}

// requireSession answers 401 unless the request carries a live token.
// An expired token is cleared the same way the page guard clears it.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) bool {
	s := currentSession(r)
	if s == nil {
		response.Unauthorized(w, "Please log in to continue")
		return false
	}
	st := s.Get()
	if !st.Authenticated() {
		response.Unauthorized(w, "Please log in to continue")
		return false
	}
	if auth.Expired(st.Token, h.now()) {
		if err := s.Logout(r.Context()); err != nil {
			logger.WarnContext(r.Context(), "Failed to clear expired session", "error", err)
		}
		response.WriteError(w, http.StatusUnauthorized, "Your session has expired. Please log in again.", response.CodeExpiredToken)
		return false
	}
	return true
}

// CreatePaymentIntent starts a card payment for one of the caller's bookings.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		response.WriteError(w, http.StatusServiceUnavailable, payments.ErrNotConfigured.Error(), response.CodeInternalError)
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookingID == "" {
		response.BadRequest(w, "bookingId is required")
		return
	}

	ctx := r.Context()
	b, err := h.api.Bookings.Get(ctx, req.BookingID)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	in, err := h.payments.CreateIntent(ctx, *b)
	if errors.Is(err, payments.ErrNotPayable) {
		response.WriteError(w, http.StatusConflict, "This booking has nothing left to pay", response.CodeNotPayable)
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create payment intent", "booking_id", b.ID, "error", err)
		response.InternalError(w, "Could not start the payment")
		return
	}

	logger.InfoContext(ctx, "Payment intent created", "booking_id", b.ID, "intent_id", in.ID)
	response.JSON(w, http.StatusCreated, intentResponse{
		ClientSecret:   in.ClientSecret,
		IntentID:       in.ID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		PublishableKey: h.payments.PublishableKey(),
	})
}

// PaymentWebhook receives the gateway's signed event deliveries.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		response.WriteError(w, http.StatusServiceUnavailable, payments.ErrNotConfigured.Error(), response.CodeInternalError)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	ev, err := h.processor.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrInvalidWebhook):
		logger.WarnContext(r.Context(), "Rejected webhook", "error", err)
		response.WriteError(w, http.StatusBadRequest, "invalid webhook", response.CodeInvalidWebhook)
	case err != nil:
		// a 5xx makes the gateway redeliver
		logger.ErrorContext(r.Context(), "Webhook processing failed", "error", err)
		response.InternalError(w, "webhook processing failed")
	default:
		response.JSON(w, http.StatusOK, map[string]string{"received": ev.Type})
	}
}

// CreateBookingJSON is the JSON twin of the booking form and, like the form,
// needs a live session.
func (h *Handlers) CreateBookingJSON(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	req.Email = utils.NormalizeEmail(req.Email)
	req.Mobile = utils.NormalizeMobile(req.Mobile)

	form := map[string]string{
		"name":      utils.NormalizeString(req.Name),
		"email":     req.Email,
		"mobile":    req.Mobile,
		"eventDate": req.EventDate,
	}
	if req.Guests != 0 {
		form["guests"] = strconv.Itoa(req.Guests)
	}
	errs := validateBooking(form, h.now())
	if req.EventID == "" {
		errs.Check("eventId", false, "eventId is required")
	}
	if !errs.Valid() {
		body, _ := json.Marshal(errs)
		response.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "validation failed", response.CodeInvalidInput, string(body))
		return
	}

	b, err := h.createBooking(r.Context(), req)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	w.Header().Set("Location", "/checkout/"+b.ID)
	response.JSON(w, http.StatusCreated, b)
}
