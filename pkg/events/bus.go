package events

import (
	"context"
	"errors"
	"sync"

	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
)

// ErrBusClosed is returned when subscribing to a shut down bus
var ErrBusClosed = errors.New("event bus is closed")

const subscriptionBuffer = 64

// Bus delivers events to in-process subscribers by topic. Slow
// subscribers drop events instead of blocking publishers.
type Bus struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool

	remote  Publisher
	metrics *metrics.Registry
	logger  logging.Logger
}

// Subscription receives the events of one topic. The empty topic
// receives every event.
type Subscription struct {
	topic     string
	channel   chan Event
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// BusOptions configures a Bus
type BusOptions struct {
	// Remote also receives every event; nil keeps events in process
	Remote  Publisher
	Metrics *metrics.Registry
	Logger  logging.Logger
}

// NewBus creates an event bus
func NewBus(opts BusOptions) *Bus {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Bus{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		remote:      opts.Remote,
		metrics:     opts.Metrics,
		logger:      logger.With(logging.Component("events")),
	}
}

// Subscribe registers for topic until ctx is cancelled or Unsubscribe is
// called
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrBusClosed
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, subscriptionBuffer),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish delivers ev to matching subscribers and forwards it to the
// remote publisher
func (b *Bus) Publish(ev Event) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	// Snapshot subscribers so sends happen outside the lock
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscribers[ev.Topic])+len(b.subscribers[""]))
	for sub := range b.subscribers[ev.Topic] {
		subs = append(subs, sub)
	}
	if ev.Topic != "" {
		for sub := range b.subscribers[""] {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		delivered := sub.deliver(ev)
		b.metrics.RecordEvent(ev.Topic, delivered)
	}

	if b.remote != nil {
		if err := b.publishRemote(ev); err != nil {
			b.metrics.RecordEvent(ev.Topic, false)
			b.logger.Warn("remote publish failed", logging.String("topic", ev.Topic), logging.Error(err))
		}
	}
}

func (b *Bus) publishRemote(ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return err
	}
	return b.remote.Publish(ev.Topic, data)
}

// SubscriberCount returns the number of subscribers for a topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes every subscription and the remote publisher
func (b *Bus) Shutdown() error {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic := range b.subscribers {
		for sub := range b.subscribers[topic] {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()

	if b.remote != nil {
		return b.remote.Close()
	}
	return nil
}

// Events returns the subscription's event channel. It is closed on
// unsubscribe or bus shutdown.
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	if s.bus.subscribers[s.topic] != nil {
		delete(s.bus.subscribers[s.topic], s)
		if len(s.bus.subscribers[s.topic]) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	// close under the bus lock so a concurrent Publish cannot send on a
	// closed channel
	s.close()
	s.bus.mu.Unlock()
}

func (s *Subscription) deliver(ev Event) (delivered bool) {
	defer func() {
		// the subscription was closed between snapshot and send
		if recover() != nil {
			delivered = false
		}
	}()
	select {
	case s.channel <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
