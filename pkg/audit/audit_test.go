package audit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailRing(t *testing.T) {
	trail := NewTrail(3, nil, nil)

	for _, action := range []Action{ActionReload, ActionSave, ActionClearCache, ActionCacheResult} {
		require.NoError(t, trail.Log(&Event{Action: action, Status: StatusSuccess, Subject: "ops"}))
	}

	assert.Equal(t, int64(4), trail.Total())

	events := trail.Events(nil)
	require.Len(t, events, 3)
	assert.Equal(t, ActionSave, events[0].Action, "oldest event was evicted")
	assert.Equal(t, ActionCacheResult, events[2].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())

	recent := trail.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, ActionCacheResult, recent[0].Action)
}

func TestTrailFilter(t *testing.T) {
	trail := NewTrail(10, nil, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, trail.Log(&Event{Action: ActionSave, Subject: "alice", Status: StatusSuccess, Timestamp: base}))
	require.NoError(t, trail.Log(&Event{Action: ActionSave, Subject: "bob", Status: StatusDenied, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, trail.Log(&Event{Action: ActionReload, Subject: "alice", Status: StatusFailure, Timestamp: base.Add(2 * time.Hour)}))

	assert.Len(t, trail.Events(&Filter{Subject: "alice"}), 2)
	assert.Len(t, trail.Events(&Filter{Action: ActionSave}), 2)
	assert.Len(t, trail.Events(&Filter{Status: StatusDenied}), 1)

	start := base.Add(30 * time.Minute)
	end := base.Add(90 * time.Minute)
	got := trail.Events(&Filter{StartTime: &start, EndTime: &end})
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Subject)
}

type failingSink struct{ closed bool }

func (f *failingSink) Write(*Event) error { return errors.New("disk full") }
func (f *failingSink) Close() error       { f.closed = true; return nil }

func TestTrailSinkFailureKeepsEvent(t *testing.T) {
	sink := &failingSink{}
	trail := NewTrail(5, sink, nil)

	assert.EqualError(t, trail.Log(&Event{Action: ActionSave}), "disk full")
	assert.Len(t, trail.Events(nil), 1)

	require.NoError(t, trail.Close())
	assert.True(t, sink.closed)
}

func TestFileSinkChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	sink, err := OpenFileSink(path)
	require.NoError(t, err)
	trail := NewTrail(10, sink, nil)
	require.NoError(t, trail.Log(&Event{Action: ActionReload, Status: StatusSuccess, Metadata: map[string]any{"located": 3}}))
	require.NoError(t, trail.Log(&Event{Action: ActionSave, Status: StatusSuccess, Resource: "nightly"}))
	require.NoError(t, trail.Close())

	n, err := Verify(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// reopening continues the chain
	sink, err = OpenFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(&Event{ID: "x", Action: ActionClearCache, Status: StatusSuccess, Timestamp: time.Now()}))
	require.NoError(t, sink.Close())

	n, err = Verify(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := OpenFileSink(path)
	require.NoError(t, err)
	trail := NewTrail(10, sink, nil)
	require.NoError(t, trail.Log(&Event{Action: ActionSave, Status: StatusSuccess, Resource: "nightly"}))
	require.NoError(t, trail.Log(&Event{Action: ActionSave, Status: StatusSuccess, Resource: "weekly"}))
	require.NoError(t, trail.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(`"weekly"`), []byte(`"monthly"`), 1)
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	n, err := Verify(path)
	assert.ErrorIs(t, err, ErrChainBroken)
	assert.Equal(t, 1, n)

	_, err = OpenFileSink(path)
	assert.ErrorIs(t, err, ErrChainBroken, "a broken log is not extended")

	lines := bytes.SplitN(data, []byte("\n"), 2)
	require.NoError(t, os.WriteFile(path, lines[1], 0o600))
	_, err = Verify(path)
	assert.ErrorIs(t, err, ErrChainBroken, "dropping the first record breaks the chain")
}
