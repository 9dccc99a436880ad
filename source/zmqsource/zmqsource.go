// Package zmqsource receives digital samples over ZeroMQ.
package zmqsource

import (
	"bytes"
	"context"
	"fmt"
	"time"

	zmq "github.com/pebbe/zmq4"

	"pipelined.dev/digital"
	"pipelined.dev/digital/source"
)

// pollInterval defines how often subscriber checks the context.
const pollInterval = 100 * time.Millisecond

// Subscriber receives binary frames published on a ZeroMQ socket. Every
// message must contain exactly one frame encoded with source.Encode.
type Subscriber struct {
	socket  *zmq.Socket
	samples chan digital.Sample
	err     error
}

// Subscribe connects to the endpoint and starts receiving messages that
// start with the filter. Empty filter subscribes to all messages.
// Subscriber runs until context is done or receive fails.
func Subscribe(ctx context.Context, endpoint, filter string) (*Subscriber, error) {
	socket, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf("zmq socket: %w", err)
	}
	if err := socket.Connect(endpoint); err != nil {
		socket.Close()
		return nil, fmt.Errorf("zmq connect %s: %w", endpoint, err)
	}
	if err := socket.SetSubscribe(filter); err != nil {
		socket.Close()
		return nil, fmt.Errorf("zmq subscribe %q: %w", filter, err)
	}
	s := &Subscriber{
		socket:  socket,
		samples: make(chan digital.Sample),
	}
	go s.receive(ctx, len(filter))
	return s, nil
}

func (s *Subscriber) receive(ctx context.Context, prefix int) {
	defer close(s.samples)
	defer s.socket.Close()
	poller := zmq.NewPoller()
	poller.Add(s.socket, zmq.POLLIN)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		polled, err := poller.Poll(pollInterval)
		if err != nil {
			s.err = fmt.Errorf("zmq poll: %w", err)
			return
		}
		if len(polled) == 0 {
			continue
		}
		msg, err := s.socket.RecvBytes(0)
		if err != nil {
			s.err = fmt.Errorf("zmq receive: %w", err)
			return
		}
		m, err := source.Decode(bytes.NewReader(msg[prefix:]))
		if err != nil {
			s.err = err
			return
		}
		select {
		case s.samples <- m:
		case <-ctx.Done():
			return
		}
	}
}

// Samples returns received samples. The channel is closed when the
// subscriber is done.
func (s *Subscriber) Samples() <-chan digital.Sample {
	return s.samples
}

// Err returns the error that stopped the subscriber. It must be called
// after Samples is closed.
func (s *Subscriber) Err() error {
	return s.err
}
