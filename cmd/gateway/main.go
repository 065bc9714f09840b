package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/admin"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/auth"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/cache"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/entitlement"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/handlers"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/notify"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/payments"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/providers"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/config"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/database"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/redis"
)

func main() {
	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zl.Fatal("failed to load config", zap.Error(err))
	}

	zl.Info("starting AJ STUDIOZ gateway", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			zl.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	zl.Info("connected to PostgreSQL", zap.Bool("auto_migrate", cfg.AutoMigrate))

	// Redis is optional; without it caches stay in-process and rate limits are off.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.New(ctx, cfg.RedisURL)
		if err != nil {
			zl.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		zl.Info("connected to Redis")
	} else {
		zl.Warn("REDIS_URL not set, rate limiting disabled")
	}

	m := metrics.New()
	reg := registry.Default()
	ctrl := access.NewController(reg, m)

	resolver, err := providers.NewDefaultResolver()
	if err != nil {
		zl.Fatal("failed to build provider resolver", zap.Error(err))
	}
	manager := providers.NewManager(resolver, func() providers.Credentials {
		return providers.Credentials(cfg.ProviderKeys())
	}, m, zl)

	// Caches
	var responses *cache.ResponseCache
	if cfg.CacheEnabled {
		responses = cache.NewResponseCache(newStore(redisClient, "ajstudioz:chat:", cfg.ResponseCacheTTL, 0), m)
	}
	// Shared across instances when Redis is up, so a webhook's invalidation
	// reaches every gateway.
	entStore := newStore(redisClient, "ajstudioz:", cfg.EntitlementCacheTTL, cfg.EntitlementCacheSize)
	entCache := cache.NewEntitlementCache(entStore, m)

	entitlements := entitlement.NewService(db, entCache, cfg.ProPeriodDays, zl)
	sessions, err := auth.NewSessions(cfg.SessionSecret, "ajstudioz", cfg.SessionTTL)
	if err != nil {
		zl.Fatal("failed to initialize sessions", zap.Error(err))
	}

	// Email
	var mailer notify.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey)
	} else {
		zl.Warn("RESEND_API_KEY not set, emails will only be logged")
		mailer = notify.NewLogMailer(zl)
	}
	dispatcher := notify.NewDispatcher(mailer, cfg.EmailFrom, cfg.AdminAlertEmails, zl)

	// Payments
	processor := payments.NewProcessor(cfg.CashfreeWebhookSecret, db, dispatcher, entitlements, m, zl)
	cashfree := payments.NewClient(cfg.CashfreeAppID, cfg.CashfreeSecretKey, payments.BaseURL(cfg.CashfreeProduction))
	checkout := payments.NewCheckout(cashfree, cfg.ProMonthlyPriceINR, cfg.BaseURL, zl)

	// A nil *redis.Client must not reach the handler as a non-nil interface.
	var limiter handlers.RateLimiter
	if redisClient != nil {
		limiter = redisClient
	}

	router := handlers.NewRouter(handlers.Routes{
		Middleware: handlers.NewMiddleware(sessions, entitlements, ctrl, zl),
		Chat: handlers.NewChatHandler(reg, ctrl, manager, responses, limiter, handlers.Limits{
			Anonymous:     cfg.UnauthDailyLimit,
			Authenticated: cfg.DailyMessageLimit,
		}, db, m, zl),
		Models:   handlers.NewModelsHandler(reg, ctrl),
		Webhooks: handlers.NewWebhookHandler(processor, zl),
		Account:  handlers.NewAccountHandler(checkout, entitlements, dispatcher, zl),
		Admin:    handlers.NewAdminHandler(admin.NewService(db, entitlements, zl), zl),
		Metrics:  m.Handler(),
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		},
	})

	// WriteTimeout stays off so streamed completions are not cut; non-streaming
	// routes carry their own chi timeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zl.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.Int("models", reg.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	zl.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown error", zap.Error(err))
	}

	zl.Info("server stopped")
}
