// Package admingate protects the /admin area with one shared operator secret.
//
// The gate knows nothing about logged-in users or their roles. Knowing the
// secret is the only thing that opens it, and an admin account alone does not.
package admingate

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/gorilla/sessions"
)

const (
	QueryParam  = "key"
	sessionKey  = "admin_key"
	UnlockPath  = "/admin/unlock"
	defaultNext = "/admin/dashboard"

	NoticeIncorrect = "Incorrect password."
)

var ErrNotConfigured = errors.New("admin gate needs ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")

// PromptFunc answers 401 with the password prompt for the URL the visitor
// asked for.
type PromptFunc func(w http.ResponseWriter, r *http.Request, next string, notice string)

type Gate struct {
	password    string
	hash        string
	sessions    sessions.Store
	sessionName string
	prompt      PromptFunc
}

// New configures the gate with a plaintext password or an argon2id hash.
// store holds the browser-session cookie named sessionName.
func New(password, hash string, store sessions.Store, sessionName string, prompt PromptFunc) (*Gate, error) {
	if password == "" && hash == "" {
		return nil, ErrNotConfigured
	}
	return &Gate{
		password:    password,
		hash:        hash,
		sessions:    store,
		sessionName: sessionName,
		prompt:      prompt,
	}, nil
}

// Verify compares candidate with the configured secret.
func (g *Gate) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	if g.hash != "" {
		ok, err := argon2id.ComparePasswordAndHash(candidate, g.hash)
		if err != nil {
			logger.Warn("Admin password hash is invalid", "error", err)
			return false
		}
		return ok
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.password)) == 1
}

// Allowed checks the query parameter first, then the browser-session value.
func (g *Gate) Allowed(r *http.Request) (string, bool) {
	if key := r.URL.Query().Get(QueryParam); key != "" && g.Verify(key) {
		return key, true
	}
	sess, err := g.sessions.Get(r, g.sessionName)
	if err != nil {
		return "", false
	}
	if key, ok := sess.Values[sessionKey].(string); ok && g.Verify(key) {
		return key, true
	}
	return "", false
}

func (g *Gate) remember(w http.ResponseWriter, r *http.Request, key string) {
	sess, _ := g.sessions.Get(r, g.sessionName)
	if existing, _ := sess.Values[sessionKey].(string); existing == key {
		return
	}
	sess.Values[sessionKey] = key
	if err := sess.Save(r, w); err != nil {
		logger.WarnContext(r.Context(), "Failed to save admin gate session", "error", err)
	}
}

// Middleware renders the prompt instead of the admin page until the secret
// has been presented.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == UnlockPath {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := g.Allowed(r)
		if !ok {
			g.prompt(w, r, r.URL.RequestURI(), "")
			return
		}
		g.remember(w, r, key)
		next.ServeHTTP(w, r)
	})
}

// Unlock handles the prompt form. The correct secret is kept for the
// browser session and the visitor returns to the page they asked for with
// the secret in the URL so the link can be bookmarked. A wrong secret shows
// an empty prompt again. There is no lockout.
func (g *Gate) Unlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	target := safeNext(r.PostForm.Get("next"))
	candidate := r.PostForm.Get("password")

	if !g.Verify(candidate) {
		logger.InfoContext(r.Context(), "Admin gate rejected password")
		g.prompt(w, r, target, NoticeIncorrect)
		return
	}

	g.remember(w, r, candidate)
	http.Redirect(w, r, WithKey(target, candidate), http.StatusSeeOther)
}

// WithKey sets the key query parameter on target.
func WithKey(target, key string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(QueryParam, key)
	u.RawQuery = q.Encode()
	return u.String()
}

func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "//") {
		return defaultNext
	}
	if strings.HasPrefix(next, UnlockPath) {
		return defaultNext
	}
	return next
}
