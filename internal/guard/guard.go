// Package guard decides whether a page may render for the current session.
//
// Expiry is read from the token locally without verifying its signature and
// against the server clock. This only spares the user a protected page the
// backend would refuse anyway; the backend rejects expired tokens on its own.
package guard

import (
	"context"
	"net/http"
	"time"

	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/pkg/auth"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LoginPath = "/login"

	NoticeAuthRequired = "Please log in to continue."
	NoticeExpired      = "Your session has expired. Please log in again."
)

// State of one path visit. Every visit starts unchecked and Check always
// ends it checked.
type State int

const (
	Unchecked State = iota
	Checked
)

type Outcome string

const (
	OutcomePublic  Outcome = "public"
	OutcomeValid   Outcome = "valid"
	OutcomeNoToken Outcome = "no_token"
	OutcomeExpired Outcome = "expired"
)

type Decision struct {
	State    State
	Verdict  Verdict
	Rule     string
	Outcome  Outcome
	Redirect string
	Notice   string
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Session is what the guard needs from the session store.
type Session interface {
	Get() session.State
	Logout(ctx context.Context) error
}

type Guard struct {
	rules     Rules
	now       func() time.Time
	decisions *prometheus.CounterVec
}

// New builds a guard. reg may be nil, in which case the decision counter is
// kept but not registered.
func New(rules Rules, reg prometheus.Registerer) *Guard {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Guard{
		rules: rules,
		now:   time.Now,
		decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "festa_guard_decisions_total",
			Help: "Route guard decisions by outcome.",
		}, []string{"outcome"}),
	}
}

// Check classifies path and, for protected paths, validates the session.
// Public paths never look at the token. An expired or undecodable token
// logs the session out once and redirects to the login page.
func (g *Guard) Check(ctx context.Context, path string, s Session) Decision {
	rule := g.rules.Classify(path)
	d := Decision{State: Checked, Verdict: rule.Verdict, Rule: rule.Name}

	switch {
	case rule.Verdict == Public:
		d.Outcome = OutcomePublic
	case s == nil || !s.Get().Authenticated():
		d.Outcome = OutcomeNoToken
		d.Redirect = LoginPath
		d.Notice = NoticeAuthRequired
	case auth.Expired(s.Get().Token, g.now()):
		if err := s.Logout(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to clear expired session", "error", err)
		}
		d.Outcome = OutcomeExpired
		d.Redirect = LoginPath
		d.Notice = NoticeExpired
	default:
		d.Outcome = OutcomeValid
	}

	g.decisions.WithLabelValues(string(d.Outcome)).Inc()
	return d
}

// NoticeFunc records a message to show on the next rendered page.
type NoticeFunc func(w http.ResponseWriter, r *http.Request, msg string)

// Middleware runs Check for each request using the session in the request
// context and redirects when access is denied.
func (g *Guard) Middleware(notice NoticeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s Session
			if store := session.FromContext(r.Context()); store != nil {
				s = store
			}

			d := g.Check(r.Context(), r.URL.Path, s)
			if d.Allowed() {
				next.ServeHTTP(w, r)
				return
			}

			logger.InfoContext(r.Context(), "Route guard redirect",
				"path", r.URL.Path,
				"outcome", string(d.Outcome),
			)
			if notice != nil && d.Notice != "" {
				notice(w, r, d.Notice)
			}
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		})
	}
}
