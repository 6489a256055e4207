package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func newBrowser() *Browser {
	return NewBrowser(NewCookieStore(testHashKey, nil, false))
}

// carry copies the cookies set on rec onto the next request. A cookie set
// twice keeps its last value, as a browser would.
func carry(rec *httptest.ResponseRecorder, next *http.Request) *http.Request {
	last := map[string]*http.Cookie{}
	var order []string
	for _, c := range rec.Result().Cookies() {
		if _, seen := last[c.Name]; !seen {
			order = append(order, c.Name)
		}
		last[c.Name] = c
	}
	for _, name := range order {
		next.AddCookie(last[name])
	}
	return next
}

func TestNewRenderer_ParsesPages(t *testing.T) {
	rr, err := NewRenderer(nil)
	require.NoError(t, err)

	for _, page := range []string{"home", "events", "event", "login", "otp", "register", "cart", "checkout", "error", "admin_prompt", "admin_dashboard"} {
		assert.True(t, rr.Has(page), page)
	}
	assert.False(t, rr.Has("layout"))
}

func TestRender_UnknownPage(t *testing.T) {
	rr, err := NewRenderer(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rr.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope", PageData{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRender_StatusAndLayout(t *testing.T) {
	rr, err := NewRenderer(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rr.Render(rec, httptest.NewRequest(http.MethodGet, "/missing", nil), http.StatusNotFound, "error", PageData{
		Title: "Not Found",
		Data:  "event not found",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Not Found | Festa Decor</title>")
	assert.Contains(t, body, "event not found")
	assert.Contains(t, body, `href="/login"`)
}

func TestRender_ShowsLoggedInUser(t *testing.T) {
	rr, err := NewRenderer(nil)
	require.NoError(t, err)

	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := session.New(nil, kv)
	require.NoError(t, s.Set(ctx, session.State{Token: "t", User: &domain.User{FullName: "Asha", Role: domain.RoleAdmin}}))

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req = req.WithContext(session.WithSession(ctx, s))
	rec := httptest.NewRecorder()
	rr.Render(rec, req, http.StatusOK, "about", PageData{Title: "About us"})

	body := rec.Body.String()
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, `href="/admin/dashboard"`)
	assert.Contains(t, body, `action="/logout"`)
}

func TestNotices_SurviveRedirectOnce(t *testing.T) {
	b := newBrowser()
	rr, err := NewRenderer(b)
	require.NoError(t, err)

	first := httptest.NewRecorder()
	b.Notify(first, httptest.NewRequest(http.MethodPost, "/login", nil), Success, "Welcome back, Asha!")

	rec := httptest.NewRecorder()
	rr.Render(rec, carry(first, httptest.NewRequest(http.MethodGet, "/", nil)), http.StatusOK, "about", PageData{Title: "About"})
	assert.Contains(t, rec.Body.String(), `notice-success`)
	assert.Contains(t, rec.Body.String(), "Welcome back, Asha!")

	// drained: the cookie written by the render has no flashes left
	again := httptest.NewRecorder()
	assert.Empty(t, b.Notices(again, carry(rec, httptest.NewRequest(http.MethodGet, "/", nil))))
}

func TestNotices_KindAndOrder(t *testing.T) {
	b := newBrowser()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	b.Notify(rec, req, Error, "first")
	b.Notify(rec, req, Info, "second")

	got := b.Notices(httptest.NewRecorder(), carry(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, []Notice{{Kind: Error, Message: "first"}, {Kind: Info, Message: "second"}}, got)
}

func TestOTPCountdown_RoundTrip(t *testing.T) {
	b := newBrowser()
	at := time.Unix(1_700_000_000, 0)

	rec := httptest.NewRecorder()
	b.StartOTP(rec, httptest.NewRequest(http.MethodPost, "/login/otp/request", nil), "9876543210", at)

	req := carry(rec, httptest.NewRequest(http.MethodGet, "/login/otp", nil))
	cd := b.OTP(req)
	assert.Equal(t, "9876543210", cd.Mobile)
	assert.True(t, cd.RequestedAt.Equal(at))
	assert.Equal(t, 45, cd.Remaining(at.Add(15*time.Second)))

	cleared := httptest.NewRecorder()
	b.ClearOTP(cleared, req)
	assert.Equal(t, domain.OTPCountdown{}, b.OTP(carry(cleared, httptest.NewRequest(http.MethodGet, "/login/otp", nil))))
}

func TestOTP_EmptyWithoutCookie(t *testing.T) {
	assert.Equal(t, domain.OTPCountdown{}, newBrowser().OTP(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestClient_IssuesAndKeepsID(t *testing.T) {
	c := NewClient("festa_client", testHashKey, false, storage.NewMemoryBackend(), session.NewProvider(nil))

	rec := httptest.NewRecorder()
	id := c.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int(clientCookieMaxAge.Seconds()), cookies[0].MaxAge)

	next := httptest.NewRecorder()
	assert.Equal(t, id, c.ID(next, carry(rec, httptest.NewRequest(http.MethodGet, "/", nil))))
	assert.Empty(t, next.Result().Cookies())
}

func TestClient_RejectsForgedCookie(t *testing.T) {
	c := NewClient("festa_client", testHashKey, false, storage.NewMemoryBackend(), session.NewProvider(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "festa_client", Value: "someone-else"})
	rec := httptest.NewRecorder()
	id := c.ID(rec, req)
	assert.NotEqual(t, "someone-else", id)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestClientMiddleware_RestoresSession(t *testing.T) {
	backend := storage.NewMemoryBackend()
	c := NewClient("festa_client", testHashKey, false, backend, session.NewProvider(nil))

	var seen struct {
		id   string
		role any
		st   session.State
	}
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.id, _ = r.Context().Value(logger.ClientIDKey).(string)
		seen.role = r.Context().Value(logger.UserRoleKey)
		seen.st = session.FromContext(r.Context()).Get()
		assert.NotNil(t, storage.FromContext(r.Context()))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen.id)
	assert.False(t, seen.st.Authenticated())
	assert.Nil(t, seen.role)

	// what a login in the first request would have persisted
	ctx := context.Background()
	kv := backend.Open(seen.id)
	user, _ := json.Marshal(domain.User{FullName: "Asha", Role: domain.RoleUser})
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "tok"))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, string(user)))

	h.ServeHTTP(httptest.NewRecorder(), carry(first, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.True(t, seen.st.Authenticated())
	assert.Equal(t, "Asha", seen.st.User.FullName)
	assert.Equal(t, domain.RoleUser, seen.role)
}
