// Package events fans out workspace notifications to in-process
// subscribers and, optionally, to a remote PUB socket.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topics published by the workspace
const (
	TopicLegendRebuilt = "legend.rebuilt"
	TopicCacheEvicted  = "cache.evicted"
	TopicCycleDetected = "graph.cycle"
	TopicLegendSaved   = "legend.saved"
)

// Event is one notification
type Event struct {
	ID         string         `json:"id"`
	Topic      string         `json:"topic"`
	Time       time.Time      `json:"time"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh ID
func New(topic, snapshotID string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		Time:       time.Now().UTC(),
		SnapshotID: snapshotID,
		Data:       data,
	}
}

// Marshal encodes the event for the wire
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
