// Package audit records who changed the workspace and how. Events are
// kept in a fixed-size ring and can be mirrored to a hash-chained JSONL
// file.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cyberdna/pkg/logging"
)

// Action names a workspace mutation
type Action string

const (
	ActionReload      Action = "reload"
	ActionCacheResult Action = "cache_result"
	ActionClearCache  Action = "clear_cache"
	ActionSave        Action = "save"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

// Event is one audit record
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Subject      string         `json:"subject,omitempty"`
	Role         string         `json:"role,omitempty"`
	Action       Action         `json:"action"`
	Resource     string         `json:"resource,omitempty"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SnapshotID   string         `json:"snapshot_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Filter selects events; zero fields match everything
type Filter struct {
	Subject   string
	Action    Action
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
}

func (f *Filter) matches(e *Event) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Subject != "" && e.Subject != f.Subject:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Status != "" && e.Status != f.Status:
		return false
	case f.StartTime != nil && e.Timestamp.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	}
	return true
}

// Sink receives every logged event
type Sink interface {
	Write(e *Event) error
	Close() error
}

// Trail is a circular buffer of recent events
type Trail struct {
	mu     sync.RWMutex
	events []*Event
	index  int
	count  int
	total  int64
	sink   Sink
	logger logging.Logger
}

// NewTrail keeps the last size events. A nil sink keeps them in memory
// only.
func NewTrail(size int, sink Sink, logger logging.Logger) *Trail {
	if size <= 0 {
		size = 1000
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Trail{
		events: make([]*Event, size),
		sink:   sink,
		logger: logger.With(logging.Component("audit")),
	}
}

// Log stamps e with an ID and time when missing and records it. A sink
// failure is returned but the event stays in the ring.
func (t *Trail) Log(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	t.events[t.index] = e
	t.index = (t.index + 1) % len(t.events)
	if t.count < len(t.events) {
		t.count++
	}
	t.total++
	sink := t.sink
	t.mu.Unlock()

	t.logger.Info("audit",
		logging.String("action", string(e.Action)),
		logging.String("subject", e.Subject),
		logging.String("status", string(e.Status)),
		logging.String("resource", e.Resource),
	)

	if sink != nil {
		if err := sink.Write(e); err != nil {
			t.logger.Error("audit sink write failed", logging.Error(err))
			return err
		}
	}
	return nil
}

// Events returns matching events, oldest first
func (t *Trail) Events(filter *Filter) []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	size := len(t.events)
	out := make([]*Event, 0, t.count)
	for i := 0; i < t.count; i++ {
		e := t.events[(t.index-t.count+i+size)%size]
		if e != nil && filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to n events, newest first
func (t *Trail) Recent(n int) []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}
	size := len(t.events)
	out := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.events[(t.index-1-i+size)%size])
	}
	return out
}

// Total counts every event logged, including those evicted from the ring
func (t *Trail) Total() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// Close closes the sink
func (t *Trail) Close() error {
	if t.sink == nil {
		return nil
	}
	return t.sink.Close()
}
