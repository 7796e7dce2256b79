//go:build zmq
// +build zmq

package events

import (
	"fmt"
	"sync"

	zmq "github.com/pebbe/zmq4"
)

// ZMQPublisher publishes events on a ZeroMQ PUB socket as two-part
// messages: topic, frame.
type ZMQPublisher struct {
	mu   sync.Mutex
	sock *zmq.Socket
}

// NewZMQPublisher binds a PUB socket to url
func NewZMQPublisher(url string) (Publisher, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Bind(url); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", url, err)
	}
	return &ZMQPublisher{sock: sock}, nil
}

func (p *ZMQPublisher) Publish(topic string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.sock.SendMessage(topic, encodeFrame(topic, data))
	return err
}

func (p *ZMQPublisher) Close() error {
	return p.sock.Close()
}
