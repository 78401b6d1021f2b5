package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"aurum/internal/cache"
	"aurum/internal/config"
	"aurum/internal/events"
	apphttp "aurum/internal/http"
	"aurum/internal/log"
	"aurum/internal/metrics"
	"aurum/internal/services"
	"aurum/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := newPublisher(ctx, cfg, logger)
	assets := services.NewAssetService(publisher, logger)
	defer func() {
		if err := assets.Close(); err != nil {
			logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
	}()

	sessions := session.NewStore(session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Secure:      cfg.SecureCookies,
	}, nil)

	caches := cache.NewManager()
	caches.Register("sessions", sessions.Cleaner())
	caches.StartCleanup(cfg.CleanupInterval)
	defer caches.Stop()

	percentileSource := metrics.NewTimeSource
	if seed, ok := cfg.Seed(); ok {
		percentileSource = func() rand.Source { return metrics.NewSource(seed) }
		logger.Info("Using fixed percentile seed", "seed", seed)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Sessions:           sessions,
		Assets:             assets,
		Logger:             logger,
		PercentileSource:   percentileSource,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting aurum server",
			"port", cfg.Port,
			"events_enabled", cfg.EventsEnabled(),
			"session_ttl", cfg.SessionTTL.String(),
			"max_sessions", cfg.MaxSessions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newPublisher connects to the broker when one is configured. A broker that
// cannot be reached at startup only disables events.
func newPublisher(ctx context.Context, cfg *config.Config, logger *log.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info("Asset events disabled - no AMQP_URL provided")
		return events.NopPublisher{}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pub, err := events.NewAMQPPublisher(dialCtx, cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("AMQP unavailable, asset events disabled",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
		return events.NopPublisher{}
	}
	logger.Info("Publishing asset events", "exchange", cfg.AMQPExchange)
	return pub
}
