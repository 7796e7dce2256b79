package events

import (
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

const sendDeadline = time.Second

// MangosPublisher publishes events on a mangos PUB socket
type MangosPublisher struct {
	mu   sync.Mutex
	sock mangos.Socket
}

// NewMangosPublisher listens on url, e.g. tcp://127.0.0.1:5560 or
// inproc://cyberdna
func NewMangosPublisher(url string) (*MangosPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, sendDeadline); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Listen(url); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", url, err)
	}
	return &MangosPublisher{sock: sock}, nil
}

func (p *MangosPublisher) Publish(topic string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sock.Send(encodeFrame(topic, data))
}

func (p *MangosPublisher) Close() error {
	return p.sock.Close()
}

// Subscriber receives events from a remote publisher
type Subscriber struct {
	sock mangos.Socket
}

// Dial connects a SUB socket to url. No topics are received until
// Subscribe is called.
func Dial(url string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := sock.Dial(url); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &Subscriber{sock: sock}, nil
}

// Subscribe adds a topic; the empty topic receives everything
func (s *Subscriber) Subscribe(topic string) error {
	prefix := []byte{}
	if topic != "" {
		prefix = append([]byte(topic), frameSeparator)
	}
	return s.sock.SetOption(mangos.OptionSubscribe, prefix)
}

// Recv waits up to timeout for the next event. A zero timeout blocks.
func (s *Subscriber) Recv(timeout time.Duration) (Event, error) {
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return Event{}, err
	}
	frame, err := s.sock.Recv()
	if err != nil {
		return Event{}, err
	}
	return decodeFrame(frame)
}

func (s *Subscriber) Close() error {
	return s.sock.Close()
}
