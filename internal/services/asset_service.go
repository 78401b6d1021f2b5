package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"aurum/internal/core"
	"aurum/internal/events"
	"aurum/internal/ledger"
	"aurum/internal/log"
)

var tracer = otel.Tracer("aurum/internal/services")

// AssetService is the boundary where user input enters a ledger. It mutates
// the session ledger and announces the change on the event publisher.
type AssetService struct {
	publisher events.Publisher
	logger    *log.StructuredLogger

	added   atomic.Int64
	removed atomic.Int64
}

// NewAssetService creates a service publishing to p. A nil p disables events
// and a nil logger falls back to the default slog logger.
func NewAssetService(p events.Publisher, logger *log.Logger) *AssetService {
	if p == nil {
		p = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &AssetService{
		publisher: p,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentLedger)),
	}
}

// AddAsset appends a to l. Validation failures wrap core.ErrValidation and
// leave l unchanged.
func (s *AssetService) AddAsset(ctx context.Context, sessionID string, l *ledger.Ledger, a core.Asset) error {
	ctx, span := tracer.Start(ctx, "AssetService.AddAsset")
	defer span.End()
	span.SetAttributes(attribute.String("asset.category", a.Category))

	size, err := l.Add(a)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.added.Add(1)

	s.logger.LogAssetAdded(ctx, sessionID, a.Name, a.Category, a.Value.String(), a.Change.String(), size)

	s.publish(ctx, events.NewAssetEvent(events.AssetAdded, sessionID, a, size-1, size))
	return nil
}

// RemoveAsset removes the asset at position when it is named name. A miss
// wraps core.ErrNotFound and leaves l unchanged.
func (s *AssetService) RemoveAsset(ctx context.Context, sessionID string, l *ledger.Ledger, position int, name string) (core.Asset, error) {
	ctx, span := tracer.Start(ctx, "AssetService.RemoveAsset")
	defer span.End()
	span.SetAttributes(attribute.Int("asset.position", position))

	removed, size, err := l.Remove(position, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.Asset{}, err
	}
	s.removed.Add(1)

	s.logger.LogAssetRemoved(ctx, sessionID, removed.Name, position, size)

	s.publish(ctx, events.NewAssetEvent(events.AssetRemoved, sessionID, removed, position, size))
	return removed, nil
}

// publish never fails the caller: the ledger change already happened.
func (s *AssetService) publish(ctx context.Context, ev events.AssetEvent) {
	if err := s.publisher.PublishAssetEvent(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish asset event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithSessionID(ev.SessionID))
	}
}

// Stats reports how many assets were added and removed since start.
func (s *AssetService) Stats() (added, removed int64) {
	return s.added.Load(), s.removed.Load()
}

// Close releases the publisher.
func (s *AssetService) Close() error {
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
