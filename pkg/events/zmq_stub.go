//go:build !zmq
// +build !zmq

package events

// NewZMQPublisher requires building with -tags zmq
func NewZMQPublisher(url string) (Publisher, error) {
	return nil, ErrTransportUnavailable
}
