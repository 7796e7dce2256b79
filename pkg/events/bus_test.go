package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cyberdna/pkg/metrics"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBusDeliversByTopic(t *testing.T) {
	bus := NewBus(BusOptions{})
	defer bus.Shutdown()

	rebuilt, err := bus.Subscribe(context.Background(), TopicLegendRebuilt)
	require.NoError(t, err)
	all, err := bus.Subscribe(context.Background(), "")
	require.NoError(t, err)
	evicted, err := bus.Subscribe(context.Background(), TopicCacheEvicted)
	require.NoError(t, err)

	ev := New(TopicLegendRebuilt, "snap-1", map[string]any{"processes": 3})
	bus.Publish(ev)

	got := receive(t, rebuilt)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, "snap-1", got.SnapshotID)
	assert.Equal(t, ev.ID, receive(t, all).ID)

	select {
	case <-evicted.Events():
		t.Fatal("cache.evicted subscriber received legend.rebuilt")
	default:
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(BusOptions{})
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), TopicCycleDetected)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.SubscriberCount(TopicCycleDetected))

	sub.Unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount(TopicCycleDetected))

	_, ok := <-sub.Events()
	assert.False(t, ok)

	// publishing after unsubscribe must not panic
	bus.Publish(New(TopicCycleDetected, "", nil))
}

func TestBusContextCancelUnsubscribes(t *testing.T) {
	bus := NewBus(BusOptions{})
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, TopicLegendSaved)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	assert.Eventually(t, func() bool { return bus.SubscriberCount(TopicLegendSaved) == 0 },
		time.Second, 10*time.Millisecond)
}

func TestBusShutdown(t *testing.T) {
	remote := &recordingPublisher{}
	bus := NewBus(BusOptions{Remote: remote})

	sub, err := bus.Subscribe(context.Background(), TopicLegendRebuilt)
	require.NoError(t, err)

	require.NoError(t, bus.Shutdown())
	require.NoError(t, bus.Shutdown())
	assert.True(t, remote.closed)

	_, ok := <-sub.Events()
	assert.False(t, ok)

	_, err = bus.Subscribe(context.Background(), TopicLegendRebuilt)
	assert.ErrorIs(t, err, ErrBusClosed)

	bus.Publish(New(TopicLegendRebuilt, "", nil))
	assert.Empty(t, remote.frames)
}

func TestBusSlowSubscriberDrops(t *testing.T) {
	reg := metrics.NewRegistry()
	bus := NewBus(BusOptions{Metrics: reg})
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), TopicCacheEvicted)
	require.NoError(t, err)

	for i := 0; i < subscriptionBuffer+5; i++ {
		bus.Publish(New(TopicCacheEvicted, "", nil))
	}
	assert.Len(t, sub.Events(), subscriptionBuffer)
}

func TestBusForwardsToRemote(t *testing.T) {
	remote := &recordingPublisher{}
	bus := NewBus(BusOptions{Remote: remote})
	defer bus.Shutdown()

	ev := New(TopicLegendRebuilt, "snap", nil)
	bus.Publish(ev)

	require.Len(t, remote.frames, 1)
	got, err := decodeFrame(encodeFrame(remote.topics[0], remote.frames[0]))
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
}

func TestBusRemoteFailureDoesNotBlockLocal(t *testing.T) {
	bus := NewBus(BusOptions{Remote: &recordingPublisher{err: errors.New("down")}})
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), TopicLegendRebuilt)
	require.NoError(t, err)

	bus.Publish(New(TopicLegendRebuilt, "", nil))
	receive(t, sub)
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus(BusOptions{})
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				bus.Publish(New(TopicLegendRebuilt, "", nil))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, sub.Events(), 32)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	frames [][]byte
	closed bool
	err    error
}

func (p *recordingPublisher) Publish(topic string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.frames = append(p.frames, data)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}
