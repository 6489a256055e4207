package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/gorilla/sessions"
)

// BrowserSessionName is the cookie that lives until the browser closes. It
// carries notices, the OTP resend window and the admin gate key.
const BrowserSessionName = "festa_browser"

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

type Notice struct {
	Kind    Kind
	Message string
}

const (
	otpMobileKey = "otp_mobile"
	otpAtKey     = "otp_at"
)

// Browser wraps the browser-session cookie.
type Browser struct {
	store sessions.Store
}

// NewCookieStore builds the browser-session store. MaxAge 0 makes the cookie
// expire with the browser session.
func NewCookieStore(hashKey, blockKey []byte, secure bool) *sessions.CookieStore {
	var store *sessions.CookieStore
	if len(blockKey) > 0 {
		store = sessions.NewCookieStore(hashKey, blockKey)
	} else {
		store = sessions.NewCookieStore(hashKey)
	}
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func NewBrowser(store sessions.Store) *Browser {
	return &Browser{store: store}
}

func (b *Browser) Store() sessions.Store {
	return b.store
}

func (b *Browser) get(r *http.Request) *sessions.Session {
	sess, err := b.store.Get(r, BrowserSessionName)
	if err != nil {
		// an unreadable cookie (rotated keys) starts over
		logger.DebugContext(r.Context(), "Discarding browser session", "error", err)
	}
	return sess
}

func (b *Browser) save(w http.ResponseWriter, r *http.Request, sess *sessions.Session) {
	if err := sess.Save(r, w); err != nil {
		logger.WarnContext(r.Context(), "Failed to save browser session", "error", err)
	}
}

// Notify queues a notice for the next rendered page.
func (b *Browser) Notify(w http.ResponseWriter, r *http.Request, kind Kind, msg string) {
	sess := b.get(r)
	sess.AddFlash(string(kind) + "|" + msg)
	b.save(w, r, sess)
}

// Notices drains the queued notices.
func (b *Browser) Notices(w http.ResponseWriter, r *http.Request) []Notice {
	sess := b.get(r)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	b.save(w, r, sess)

	out := make([]Notice, 0, len(flashes))
	for _, f := range flashes {
		s, ok := f.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(s, "|")
		if !found {
			kind, msg = string(Info), s
		}
		out = append(out, Notice{Kind: Kind(kind), Message: msg})
	}
	return out
}

func (b *Browser) StartOTP(w http.ResponseWriter, r *http.Request, mobile string, at time.Time) {
	sess := b.get(r)
	sess.Values[otpMobileKey] = mobile
	sess.Values[otpAtKey] = at.Unix()
	b.save(w, r, sess)
}

func (b *Browser) OTP(r *http.Request) domain.OTPCountdown {
	sess := b.get(r)
	mobile, _ := sess.Values[otpMobileKey].(string)
	at, ok := sess.Values[otpAtKey].(int64)
	if !ok || mobile == "" {
		return domain.OTPCountdown{}
	}
	return domain.OTPCountdown{Mobile: mobile, RequestedAt: time.Unix(at, 0)}
}

func (b *Browser) ClearOTP(w http.ResponseWriter, r *http.Request) {
	sess := b.get(r)
	delete(sess.Values, otpMobileKey)
	delete(sess.Values, otpAtKey)
	b.save(w, r, sess)
}
