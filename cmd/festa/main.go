package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/diagnosis/festa-decor/internal/admingate"
	"github.com/diagnosis/festa-decor/internal/backend"
	"github.com/diagnosis/festa-decor/internal/guard"
	"github.com/diagnosis/festa-decor/internal/http/handlers"
	"github.com/diagnosis/festa-decor/internal/payments"
	"github.com/diagnosis/festa-decor/internal/platform/mailer"
	"github.com/diagnosis/festa-decor/internal/server"
	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/internal/web"
	"github.com/diagnosis/festa-decor/pkg/config"
	"github.com/diagnosis/festa-decor/pkg/database"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
	mw "github.com/diagnosis/festa-decor/pkg/middleware"
)

// Set with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "festa",
		Short:         "Festa Decor storefront and admin panel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), logLevel)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print an argon2id hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := argon2id.CreateHash(args[0], argon2id.DefaultParams)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "routes [path...]",
		Short: "Show whether each path is public or protected, and which rule decides it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(config.Load().Routes.File)
			if err != nil {
				return err
			}
			for _, p := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", guard.Normalize(p), rules.Explain(p))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "festa %s\n", Version)
		},
	})

	return cmd
}

// stores holds the durable per-client backend and the short-lived cache
// used for rate limiting and idempotent replays.
type stores struct {
	backend storage.Backend
	cache   interface {
		mw.Counter
		mw.IdempotencyStore
	}
}

func openStores(ctx context.Context, cfg config.StorageConfig) (*stores, error) {
	switch cfg.Driver {
	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return &stores{
			backend: storage.NewRedisBackend(client, cfg.TTL),
			cache:   storage.NewRedisCache(client),
		}, nil
	case "postgres":
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgresBackend(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure storage schema: %w", err)
		}
		return &stores{backend: pg, cache: storage.NewMemoryCache()}, nil
	default:
		return &stores{backend: storage.NewMemoryBackend(), cache: storage.NewMemoryCache()}, nil
	}
}

// loadRules reads the route rules file, or returns the built-in rules when
// no file is configured.
func loadRules(file string) (guard.Rules, error) {
	if file == "" {
		return guard.DefaultRules(), nil
	}
	return guard.LoadRules(file)
}

func serve(ctx context.Context, logLevel string) error {
	cfg := config.Load()
	if logLevel != "" {
		logger.SetLevel(logLevel)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	defer st.backend.Close()
	logger.Info("storage ready", "driver", cfg.Storage.Driver)

	var pub events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
		} else {
			pub = np
		}
	}
	defer pub.Close()

	api := backend.NewServices(backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout))

	var (
		gateway   payments.Gateway
		processor *payments.Processor
	)
	if cfg.Stripe.SecretKey != "" {
		sg, err := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.PublishableKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
		if err != nil {
			logger.Error("failed to configure payments", "error", err)
			return err
		}
		gateway = sg
		processor = payments.NewProcessor(sg, api.Bookings, pub)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, online payments disabled")
	}

	rules, err := loadRules(cfg.Routes.File)
	if err != nil {
		logger.Error("failed to load route rules", "file", cfg.Routes.File, "error", err)
		return err
	}

	hashKey := []byte(cfg.Session.HashKey)
	browser := web.NewBrowser(web.NewCookieStore(hashKey, []byte(cfg.Session.BlockKey), cfg.Session.SecureCookie))
	render, err := web.NewRenderer(browser)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		return err
	}
	provider := session.NewProvider(api.Auth, session.PublishHook(pub))
	client := web.NewClient(cfg.Session.ClientCookie, hashKey, cfg.Session.SecureCookie, st.backend, provider)

	h := handlers.New(handlers.Deps{
		API:       api,
		Render:    render,
		Browser:   browser,
		Payments:  gateway,
		Processor: processor,
		Events:    pub,
		Notifier:  mailer.NewNotifier(mailer.New(cfg.Email), cfg.Email.NotifyTo),
	})

	gate, err := admingate.New(cfg.Admin.Password, cfg.Admin.PasswordHash, browser.Store(), web.BrowserSessionName, h.AdminPrompt)
	if err != nil {
		logger.Error("failed to configure admin gate", "error", err)
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := server.NewRouter(server.Options{
		Handlers:       h,
		Client:         client,
		Browser:        browser,
		Guard:          guard.New(rules, reg),
		Gate:           gate,
		Metrics:        mw.NewMetrics(reg),
		Counter:        st.cache,
		Idempotency:    st.cache,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("festa-web starting", "port", cfg.Server.Port, "backend", cfg.Backend.BaseURL, "version", Version)
	if err := server.Serve(ctx, srv, 30*time.Second); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("festa-web stopped")
	return nil
}
