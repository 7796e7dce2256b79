package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Transport names
const (
	TransportMangos = "mangos"
	TransportZMQ    = "zmq"
)

// ErrTransportUnavailable is returned for a transport not compiled in
var ErrTransportUnavailable = errors.New("event transport not available in this build")

// Publisher sends encoded events to remote subscribers
type Publisher interface {
	Publish(topic string, data []byte) error
	Close() error
}

// NewPublisher binds a publisher for transport at url
func NewPublisher(transport, url string) (Publisher, error) {
	switch transport {
	case TransportMangos, "":
		p, err := NewMangosPublisher(url)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TransportZMQ:
		return NewZMQPublisher(url)
	default:
		return nil, fmt.Errorf("unknown event transport %q", transport)
	}
}

// Frames are "topic\n" followed by the JSON event, so PUB/SUB prefix
// subscriptions match on topic.
const frameSeparator = '\n'

func encodeFrame(topic string, data []byte) []byte {
	frame := make([]byte, 0, len(topic)+1+len(data))
	frame = append(frame, topic...)
	frame = append(frame, frameSeparator)
	return append(frame, data...)
}

func decodeFrame(frame []byte) (Event, error) {
	i := bytes.IndexByte(frame, frameSeparator)
	if i < 0 {
		return Event{}, errors.New("event frame has no topic separator")
	}
	var ev Event
	if err := json.Unmarshal(frame[i+1:], &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.Topic != string(frame[:i]) {
		return Event{}, fmt.Errorf("event topic %q does not match frame topic %q", ev.Topic, frame[:i])
	}
	return ev, nil
}
