// Package server assembles the site's router and runs it.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/festa-decor/internal/admingate"
	"github.com/diagnosis/festa-decor/internal/guard"
	"github.com/diagnosis/festa-decor/internal/http/handlers"
	"github.com/diagnosis/festa-decor/internal/http/response"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/logger"
	mw "github.com/diagnosis/festa-decor/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const ServiceName = "festa-web"

type Options struct {
	Handlers *handlers.Handlers
	Client   *web.Client
	Browser  *web.Browser
	Guard    *guard.Guard
	Gate     *admingate.Gate
	Metrics  *mw.Metrics

	// Counter backs the rate limiter and Idempotency the replay cache.
	Counter     mw.Counter
	Idempotency mw.IdempotencyStore

	AllowedOrigins []string
	// FormLimit is the number of POSTs per minute a client may send to the
	// OTP and contact forms.
	FormLimit int
}

// guardNotice shows the guard's redirect reason on the login page.
func guardNotice(b *web.Browser) guard.NoticeFunc {
	return func(w http.ResponseWriter, r *http.Request, msg string) {
		kind := web.Info
		if msg == guard.NoticeExpired {
			kind = web.Error
		}
		b.Notify(w, r, kind, msg)
	}
}

func clientScope(r *http.Request) string {
	id, _ := r.Context().Value(logger.ClientIDKey).(string)
	return id
}

func NewRouter(o Options) http.Handler {
	h := o.Handlers

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(ServiceName))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.Health)
	if o.Metrics != nil {
		r.Use(o.Metrics.Middleware)
	}

	r.Handle("/static/*", web.Static())

	formLimit := o.FormLimit
	if formLimit <= 0 {
		formLimit = 10
	}
	limiter := mw.NewRateLimiter(o.Counter, mw.RateLimitConfig{
		Requests: formLimit,
		Window:   time.Minute,
		KeyFunc: func(r *http.Request) []string {
			if id := clientScope(r); id != "" {
				return []string{"client:" + id}
			}
			return mw.IPKeyFunc(r)
		},
		Limited: func(w http.ResponseWriter, r *http.Request) {
			o.Browser.Notify(w, r, web.Error, "Too many attempts. Please wait a minute and try again.")
			http.Redirect(w, r, strings.TrimSuffix(r.URL.Path, "/request"), http.StatusSeeOther)
		},
	})

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(o.Client.Middleware)
		r.Use(o.Guard.Middleware(guardNotice(o.Browser)))

		r.Get("/", h.Home)
		r.Get("/about", h.About)
		r.Get("/gallery", h.Gallery)
		r.Get("/privacy-policy", h.Privacy)
		r.Get("/terms", h.Terms)
		r.Get("/events", h.Events)
		r.Get("/events/{id}", h.Event)
		r.Get("/occasions", h.Occasions)
		r.Get("/blogs", h.Blogs)
		r.Get("/blogs/{slug}", h.Blog)
		r.Get("/contact", h.ContactPage)
		r.With(limiter.Middleware).Post("/contact", h.Contact)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/login/otp", h.OTPPage)
		r.With(limiter.Middleware).Post("/login/otp/request", h.RequestOTP)
		r.Post("/login/otp/verify", h.VerifyOTP)
		r.Get("/register", h.RegisterPage)
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

		r.Route("/admin", func(r chi.Router) {
			r.Use(o.Gate.Middleware)
			r.Post("/unlock", o.Gate.Unlock)

			r.Get("/", h.AdminIndex)
			r.Get("/dashboard", h.AdminDashboard)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", h.AdminEvents)
				r.Get("/new", h.AdminEventNew)
				r.Post("/", h.AdminEventCreate)
				r.Get("/{id}/edit", h.AdminEventEdit)
				r.Post("/{id}", h.AdminEventUpdate)
				r.Post("/{id}/delete", h.AdminEventDelete)
			})
			r.Route("/occasions", func(r chi.Router) {
				r.Get("/", h.AdminOccasions)
				r.Post("/", h.AdminOccasionCreate)
				r.Post("/{id}", h.AdminOccasionUpdate)
				r.Post("/{id}/delete", h.AdminOccasionDelete)
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.AdminUsers)
				r.Post("/{id}/role", h.AdminUserRole)
				r.Post("/{id}/delete", h.AdminUserDelete)
			})
			r.Route("/blogs", func(r chi.Router) {
				r.Get("/", h.AdminBlogs)
				r.Get("/new", h.AdminBlogNew)
				r.Post("/", h.AdminBlogCreate)
				r.Get("/{id}/edit", h.AdminBlogEdit)
				r.Post("/{id}", h.AdminBlogUpdate)
				r.Post("/{id}/delete", h.AdminBlogDelete)
			})
			r.Get("/bookings", h.AdminBookings)
			r.Get("/inquiries", h.AdminInquiries)
		})
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   o.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
			ExposedHeaders:   []string{"Location", "Idempotent-Replayed"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		// the gateway calls this without a browser cookie
		r.Post("/payments/webhook", h.PaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(o.Client.Middleware)
			r.Post("/payments/intent", h.CreatePaymentIntent)
			r.With(mw.IdempotencyMiddleware(o.Idempotency, clientScope)).Post("/bookings", h.CreateBookingJSON)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, "no such endpoint")
		})
	})

	return r
}

// Serve runs srv until ctx is canceled, then shuts it down within grace.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "service", ServiceName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
