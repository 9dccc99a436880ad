package runtime

import (
	"context"
	"io"

	"pipelined.dev/digital"
)

type (
	// SinkFunc writes a single sample.
	SinkFunc func(digital.Sample) error

	// Sink is the executor for device sink. It receives samples, writes
	// them and passes them further after the write is done.
	Sink struct {
		SinkFunc
		StartFunc
		FlushFunc
		Receiver <-chan digital.Sample
		Sender   chan<- digital.Sample
	}
)

// Execute does a single iteration of sink. io.EOF is returned if
// context is done or receiver is closed.
func (e Sink) Execute(ctx context.Context) error {
	var (
		s  digital.Sample
		ok bool
	)
	select {
	case s, ok = <-e.Receiver:
		if !ok {
			return io.EOF
		}
	case <-ctx.Done():
		return io.EOF
	}

	if err := e.SinkFunc(s); err != nil {
		return err
	}

	if e.Sender == nil {
		return nil
	}
	select {
	case e.Sender <- s:
		return nil
	case <-ctx.Done():
		return io.EOF
	}
}
