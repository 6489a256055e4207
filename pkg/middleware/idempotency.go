package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/festa-decor/pkg/logger"
)

const IdempotencyTTL = 24 * time.Hour

// IdempotencyStore is a TTL key/value store. Get returns "" on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Location    string `json:"location,omitempty"`
	Body        string `json:"body"`
}

// IdempotencyMiddleware replays the first successful response to a POST that
// carries an Idempotency-Key header. Keys are scoped by scope(r), so two
// browsers using the same key do not see each other's answers.
func IdempotencyMiddleware(store IdempotencyStore, scope func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			prefix := ""
			if scope != nil {
				prefix = scope(r)
			}
			sum := sha256.Sum256([]byte(prefix + "\x00" + r.URL.Path + "\x00" + key))
			cacheKey := fmt.Sprintf("idempotency:%x", sum)

			if existing, err := store.Get(r.Context(), cacheKey); err == nil && existing != "" {
				var cached cachedResponse
				if err := json.Unmarshal([]byte(existing), &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					if cached.Location != "" {
						w.Header().Set("Location", cached.Location)
					}
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.Status)
					w.Write([]byte(cached.Body))
					return
				}
			}

			recorder := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			status := recorder.statusCode
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				return
			}

			payload, _ := json.Marshal(cachedResponse{
				Status:      status,
				ContentType: w.Header().Get("Content-Type"),
				Location:    w.Header().Get("Location"),
				Body:        string(recorder.body),
			})
			if err := store.Set(r.Context(), cacheKey, string(payload), IdempotencyTTL); err != nil {
				logger.WarnContext(r.Context(), "Failed to cache idempotent response", "error", err)
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
