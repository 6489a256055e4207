package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Services {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewServices(NewClient(srv.URL+"/api", time.Second))
}

func TestClient_AttachesBearerFromStorage(t *testing.T) {
	var gotAuth, gotRequestID string
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	kv := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "abc.def.ghi"))
	ctx = storage.WithStore(ctx, kv)
	ctx = context.WithValue(ctx, logger.RequestIDKey, "req-7")

	_, err := svc.Bookings.Mine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def.ghi", gotAuth)
	assert.Equal(t, "req-7", gotRequestID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	ctx := storage.WithStore(context.Background(), storage.NewMemoryStore())
	_, err := svc.Occasions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	_, err = svc.Occasions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_ErrorMessageVerbatim(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Invalid email or password"}`, "Invalid email or password"},
		{"error field", http.StatusBadRequest, `{"error":"Mobile not registered"}`, "Mobile not registered"},
		{"no body", http.StatusBadGateway, ``, "Bad Gateway"},
		{"not json", http.StatusInternalServerError, `oops`, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := svc.Auth.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/verify-user", r.URL.Path)

		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@b.com", creds.Email)

		json.NewEncoder(w).Encode(map[string]any{
			"token": "abc.def.ghi",
			"user":  map[string]any{"role": "user", "email": "a@b.com"},
		})
	})

	res, err := svc.Auth.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "user", res.User.Role)
}

func TestAuthService_OTPPayloads(t *testing.T) {
	var paths []string
	var bodies []map[string]string
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.Write([]byte(`{"message":"ok"}`))
	})

	ctx := context.Background()
	require.NoError(t, svc.Auth.SendOTP(ctx, "9876543210"))
	_, err := svc.Auth.LoginWithOTP(ctx, domain.OTPLogin{Mobile: "9876543210", OTP: "123456"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/send-otp", "/api/verify-user"}, paths)
	assert.Equal(t, map[string]string{"mobile": "9876543210"}, bodies[0])
	assert.Equal(t, map[string]string{"mobile": "9876543210", "otp": "123456"}, bodies[1])
}

func TestEventService_ListEncodesQuery(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		assert.Equal(t, "birthday", r.URL.Query().Get("occasion"))
		assert.Equal(t, "true", r.URL.Query().Get("featured"))
		assert.False(t, r.URL.Query().Has("search"))
		w.Write([]byte(`{"data":[{"id":"e1","title":"Balloon Arch","price":2499}],"total":1}`))
	})

	events, err := svc.Events.List(context.Background(), EventQuery{Occasion: "birthday", Featured: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Balloon Arch", events[0].Title)
}

func TestCartService_ClampsAndPassesSession(t *testing.T) {
	var gotQuery string
	var gotQty int
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cart/item-1", r.URL.Path)
		gotQuery = r.URL.Query().Get("sessionId")
		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		gotQty = body["quantity"]
		w.WriteHeader(http.StatusNoContent)
	})

	err := svc.Cart.UpdateQuantity(context.Background(), "sess-1", "item-1", 42)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", gotQuery)
	assert.Equal(t, domain.MaxQuantity, gotQty)
}

func TestBookingService_RecordPayment(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/b%2F1/payment", r.URL.RawPath)
		var rec domain.PaymentRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "pi_123", rec.IntentID)
		w.WriteHeader(http.StatusOK)
	})

	err := svc.Bookings.RecordPayment(context.Background(), "b/1", domain.PaymentRecord{IntentID: "pi_123", Amount: 100, Currency: "inr", Status: "succeeded"})
	require.NoError(t, err)
}
