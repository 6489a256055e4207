package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	state   session.State
	gets    int
	logouts int
}

func (f *fakeSession) Get() session.State {
	f.gets++
	return f.state
}

func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	f.state = session.State{}
	return nil
}

func mint(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := auth.NewToken("1", "a@b.com", "user", "test-secret", exp)
	require.NoError(t, err)
	return tok
}

func TestCheck_PublicPathsSkipSession(t *testing.T) {
	g := New(nil, nil)
	paths := append([]string{}, DefaultPublic...)
	paths = append(paths, "/admin/users", "/blogs/a", "/events/b")

	for _, p := range paths {
		s := &fakeSession{state: session.State{Token: "garbage"}}
		d := g.Check(context.Background(), p, s)
		assert.True(t, d.Allowed(), p)
		assert.Equal(t, Checked, d.State)
		assert.Equal(t, OutcomePublic, d.Outcome)
		assert.Zero(t, s.gets, "public path %s must not read the session", p)
		assert.Zero(t, s.logouts)
	}

	d := g.Check(context.Background(), "/events", nil)
	assert.True(t, d.Allowed())
}

func TestCheck_NoToken(t *testing.T) {
	g := New(nil, nil)
	for _, s := range []Session{nil, &fakeSession{}} {
		d := g.Check(context.Background(), "/profile", s)
		assert.False(t, d.Allowed())
		assert.Equal(t, LoginPath, d.Redirect)
		assert.Equal(t, NoticeAuthRequired, d.Notice)
		assert.Equal(t, OutcomeNoToken, d.Outcome)
	}
}

func TestCheck_ExpiredAndMalformedFailClosed(t *testing.T) {
	g := New(nil, nil)
	tokens := map[string]string{
		"expired":   mint(t, time.Now().Add(-time.Second)),
		"malformed": "abc.def.ghi",
		"opaque":    "not-a-jwt",
	}

	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			s := &fakeSession{state: session.State{Token: tok}}
			d := g.Check(context.Background(), "/bookings", s)

			assert.Equal(t, LoginPath, d.Redirect)
			assert.Equal(t, NoticeExpired, d.Notice)
			assert.Equal(t, OutcomeExpired, d.Outcome)
			assert.Equal(t, 1, s.logouts)
		})
	}
}

func TestCheck_ValidToken(t *testing.T) {
	g := New(nil, nil)
	s := &fakeSession{state: session.State{Token: mint(t, time.Now().Add(time.Hour))}}

	d := g.Check(context.Background(), "/profile/", s)
	assert.True(t, d.Allowed())
	assert.Equal(t, OutcomeValid, d.Outcome)
	assert.Zero(t, s.logouts)
}

func TestCheck_UsesClock(t *testing.T) {
	g := New(nil, nil)
	exp := time.Now().Add(time.Hour)
	s := &fakeSession{state: session.State{Token: mint(t, exp)}}

	g.now = func() time.Time { return exp.Add(time.Second) }
	d := g.Check(context.Background(), "/profile", s)
	assert.Equal(t, OutcomeExpired, d.Outcome)
}

type nopAuth struct{}

func (nopAuth) Login(context.Context, domain.Credentials) (*domain.AuthResult, error) {
	return nil, nil
}
func (nopAuth) SendOTP(context.Context, string) error { return nil }
func (nopAuth) LoginWithOTP(context.Context, domain.OTPLogin) (*domain.AuthResult, error) {
	return nil, nil
}
func (nopAuth) Register(context.Context, domain.Registration) (*domain.AuthResult, error) {
	return nil, nil
}

func TestMiddleware_ExpiredTokenClearsStorage(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, storage.KeyToken, mint(t, time.Now().Add(-time.Second))))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"role":"user","email":"a@b.com"}`))
	require.NoError(t, kv.Set(ctx, storage.KeyRole, "user"))
	require.NoError(t, kv.Set(ctx, storage.KeyLoggedIn, "true"))

	s := session.NewProvider(nopAuth{}).Open(ctx, kv)
	require.True(t, s.Get().Authenticated())

	var notices []string
	g := New(nil, nil)
	handler := g.Middleware(func(_ http.ResponseWriter, _ *http.Request, msg string) {
		notices = append(notices, msg)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req = req.WithContext(session.WithSession(ctx, s))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.Equal(t, []string{NoticeExpired}, notices)
	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyRole, storage.KeyLoggedIn} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestMiddleware_PassesPublic(t *testing.T) {
	g := New(nil, nil)
	called := false
	handler := g.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/e1", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
