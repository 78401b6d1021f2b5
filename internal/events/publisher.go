// Package events publishes ledger mutations to interested listeners.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher delivers asset events.
type Publisher interface {
	PublishAssetEvent(ctx context.Context, ev AssetEvent) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishAssetEvent(ctx context.Context, ev AssetEvent) error {
	slog.DebugContext(ctx, "Event publishing disabled, dropping event", "type", ev.Type)
	return nil
}

func (NopPublisher) Close() error { return nil }

// MemoryPublisher keeps events in memory. Handy for tests and local runs.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []AssetEvent
}

func (m *MemoryPublisher) PublishAssetEvent(_ context.Context, ev AssetEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []AssetEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AssetEvent(nil), m.events...)
}

func (m *MemoryPublisher) Close() error { return nil }
