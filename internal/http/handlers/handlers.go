// Package handlers serves the site's pages, the admin back-office and the
// small JSON API used by the checkout page.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/payments"
	"github.com/diagnosis/festa-decor/internal/platform/mailer"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

const genericError = "Something went wrong. Please try again."

type Deps struct {
	API       *backend.Services
	Render    *web.Renderer
	Browser   *web.Browser
	Payments  payments.Gateway
	Processor *payments.Processor
	Events    events.Publisher
	Notifier  *mailer.Notifier
}

type Handlers struct {
	api       *backend.Services
	render    *web.Renderer
	browser   *web.Browser
	payments  payments.Gateway
	processor *payments.Processor
	events    events.Publisher
	notifier  *mailer.Notifier
	now       func() time.Time
}

func New(d Deps) *Handlers {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handlers{
		api:       d.API,
		render:    d.Render,
		browser:   d.Browser,
		payments:  d.Payments,
		processor: d.Processor,
		events:    pub,
		notifier:  d.Notifier,
		now:       time.Now,
	}
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request, name string, data web.PageData) {
	h.render.Render(w, r, http.StatusOK, name, data)
}

func (h *Handlers) notify(w http.ResponseWriter, r *http.Request, kind web.Kind, msg string) {
	h.browser.Notify(w, r, kind, msg)
}

func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail renders the error page for a backend failure while loading a page.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			status = http.StatusNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			status = apiErr.Status
		}
	}
	logger.WarnContext(r.Context(), "Page load failed", "path", r.URL.Path, "error", err)
	h.render.Render(w, r, status, "error", web.PageData{
		Title: http.StatusText(status),
		Data:  userMessage(err),
	})
}

// userMessage is what a notice shows for err. Backend messages pass through
// unchanged; transport failures get a generic line.
func userMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return genericError
}

func currentSession(r *http.Request) *session.Store {
	return session.FromContext(r.Context())
}

func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// formValues trims the named fields into a map the templates can refill.
func formValues(r *http.Request, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.TrimSpace(r.PostFormValue(f))
	}
	return out
}
