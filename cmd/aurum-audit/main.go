// Command aurum-audit consumes asset events and writes them to the log as
// an audit trail of ledger changes.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"aurum/internal/config"
	"aurum/internal/events"
	"aurum/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentAudit,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the audit consumer")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer sub.Close()

	logger.Info("Starting aurum-audit", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)

	err = sub.Subscribe(ctx, cfg.AMQPQueue, func(ctx context.Context, ev events.AssetEvent) error {
		logger.InfoContext(ctx, "Ledger changed",
			"type", ev.Type,
			log.FieldSessionID, ev.SessionID,
			log.FieldAssetName, ev.Asset.Name,
			log.FieldCategory, ev.Asset.Category,
			log.FieldValue, ev.Asset.Value.String(),
			log.FieldPosition, ev.Position,
			log.FieldLedgerSize, ev.LedgerSize,
			"at", ev.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Audit consumer stopped")
}
