package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/payments"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type apiFailure struct {
	status  int
	message string
}

// fakeAPI stands in for the REST backend. Handlers registered with handle
// get their call counted and body recorded.
type fakeAPI struct {
	mux *http.ServeMux

	mu      sync.Mutex
	fail    map[string]apiFailure
	calls   map[string]int
	bodies  map[string][]string
	queries map[string]url.Values
	auth    map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		mux:     http.NewServeMux(),
		fail:    map[string]apiFailure{},
		calls:   map[string]int{},
		bodies:  map[string][]string{},
		queries: map[string]url.Values{},
		auth:    map[string]string{},
	}
}

func data(v any) map[string]any {
	return map[string]any{"data": v}
}

func (f *fakeAPI) handle(pattern string, fn func(r *http.Request) (int, any)) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.EscapedPath()
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls[key]++
		f.bodies[key] = append(f.bodies[key], string(body))
		f.queries[key] = r.URL.Query()
		f.auth[key] = r.Header.Get("Authorization")
		failure, failing := f.fail[key]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failing {
			w.WriteHeader(failure.status)
			json.NewEncoder(w).Encode(map[string]string{"message": failure.message})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		status, v := fn(r)
		w.WriteHeader(status)
		if v != nil {
			json.NewEncoder(w).Encode(v)
		}
	})
}

func (f *fakeAPI) failWith(key string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key] = apiFailure{status: status, message: message}
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeAPI) lastBody(t *testing.T, key string, v any) {
	t.Helper()
	f.mu.Lock()
	bodies := f.bodies[key]
	f.mu.Unlock()
	require.NotEmpty(t, bodies, "no request to %s", key)
	require.NoError(t, json.Unmarshal([]byte(bodies[len(bodies)-1]), v))
}

func (f *fakeAPI) query(key string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[key]
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

type testEnv struct {
	api     *fakeAPI
	h       *Handlers
	kv      storage.Store
	sess    *session.Store
	browser *web.Browser
	pub     *recordingPublisher
	gateway *payments.Fake
	router  chi.Router
}

func sampleEvents(n int) []domain.Event {
	out := make([]domain.Event, n)
	for i := range out {
		occ := "birthday"
		if i%2 == 1 {
			occ = "wedding"
		}
		out[i] = domain.Event{
			ID:       "ev" + string(rune('a'+i)),
			Title:    "Package " + string(rune('A'+i)),
			Price:    1000 + float64(i)*100,
			Occasion: occ,
		}
	}
	return out
}

// newEnv wires Handlers against a fake backend with a single browser's
// storage and session injected into every request.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api.mux)
	t.Cleanup(srv.Close)

	services := backend.NewServices(backend.NewClient(srv.URL, 2*time.Second))
	browser := web.NewBrowser(web.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), nil, false))
	renderer, err := web.NewRenderer(browser)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	gw := &payments.Fake{Secret: "whsec_test"}
	h := New(Deps{
		API:       services,
		Render:    renderer,
		Browser:   browser,
		Payments:  gw,
		Processor: payments.NewProcessor(gw, services.Bookings, pub),
		Events:    pub,
	})
	h.now = func() time.Time { return testNow }

	kv := storage.NewMemoryStore()
	sess := session.New(services.Auth, kv)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := storage.WithStore(req.Context(), kv)
			ctx = session.WithSession(ctx, sess)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	routes(r, h)

	return &testEnv{api: api, h: h, kv: kv, sess: sess, browser: browser, pub: pub, gateway: gw, router: r}
}

// routes mirrors the production paths without the guard and gate.
func routes(r chi.Router, h *Handlers) {
	r.Get("/", h.Home)
	r.Get("/events", h.Events)
	r.Get("/events/{id}", h.Event)
	r.Get("/blogs", h.Blogs)
	r.Get("/blogs/{slug}", h.Blog)
	r.Get("/contact", h.ContactPage)
	r.Post("/contact", h.Contact)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/login/otp", h.OTPPage)
	r.Post("/login/otp/request", h.RequestOTP)
	r.Post("/login/otp/verify", h.VerifyOTP)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/profile", h.Profile)
	r.Get("/bookings", h.Bookings)
	r.Get("/book/{eventID}", h.BookPage)
	r.Post("/book/{eventID}", h.Book)
	r.Get("/cart", h.Cart)
	r.Post("/cart/add", h.CartAdd)
	r.Post("/cart/{itemID}/quantity", h.CartQuantity)
	r.Post("/cart/{itemID}/remove", h.CartRemove)
	r.Get("/checkout/{bookingID}", h.Checkout)

	r.Get("/admin/dashboard", h.AdminDashboard)
	r.Get("/admin/events", h.AdminEvents)
	r.Post("/admin/events", h.AdminEventCreate)
	r.Get("/admin/events/{id}/edit", h.AdminEventEdit)
	r.Post("/admin/events/{id}/delete", h.AdminEventDelete)
	r.Post("/admin/occasions", h.AdminOccasionCreate)
	r.Post("/admin/users/{id}/role", h.AdminUserRole)
	r.Get("/admin/bookings", h.AdminBookings)

	r.Post("/api/payments/intent", h.CreatePaymentIntent)
	r.Post("/api/payments/webhook", h.PaymentWebhook)
	r.Post("/api/bookings", h.CreateBookingJSON)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return e.serve(newFormRequest(path, form))
}

func (e *testEnv) postJSON(path string, body any, header http.Header) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	return e.serve(req)
}

// notices reads back the flashes a response left in the browser cookie.
func (e *testEnv) notices(rec *httptest.ResponseRecorder) []web.Notice {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == web.BrowserSessionName {
			last = c
		}
	}
	if last != nil {
		req.AddCookie(last)
	}
	return e.browser.Notices(httptest.NewRecorder(), req)
}

// login puts the browser in an authenticated state without the backend.
func (e *testEnv) login(t *testing.T, token string, u *domain.User) {
	t.Helper()
	require.NoError(t, e.sess.Set(context.Background(), session.State{Token: token, User: u}))
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (f *fakeAPI) authorization(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[key]
}
