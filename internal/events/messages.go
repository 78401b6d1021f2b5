package events

import (
	"encoding/json"
	"time"

	"aurum/internal/core"
)

// EventType names a ledger mutation. It doubles as the AMQP routing key.
type EventType string

const (
	AssetAdded   EventType = "asset.added"
	AssetRemoved EventType = "asset.removed"
)

// AssetEvent announces that a session ledger changed. It is a notification
// only; consumers cannot rebuild a ledger from it.
type AssetEvent struct {
	Type       EventType  `json:"type"`
	SessionID  string     `json:"session_id"`
	Asset      core.Asset `json:"asset"`
	Position   int        `json:"position"`
	LedgerSize int        `json:"ledger_size"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewAssetEvent stamps an event with the current time.
func NewAssetEvent(t EventType, sessionID string, a core.Asset, position, ledgerSize int) AssetEvent {
	return AssetEvent{
		Type:       t,
		SessionID:  sessionID,
		Asset:      a,
		Position:   position,
		LedgerSize: ledgerSize,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e AssetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AssetEventFromJSON decodes an event published by ToJSON.
func AssetEventFromJSON(data []byte) (AssetEvent, error) {
	var ev AssetEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return AssetEvent{}, err
	}
	return ev, nil
}
