// Package run executes digital output sessions.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/digital"
	"pipelined.dev/digital/dispatch"
	"pipelined.dev/digital/driver"
	"pipelined.dev/digital/log"
	"pipelined.dev/digital/metric"
	"pipelined.dev/digital/run/internal/runtime"
	"pipelined.dev/digital/task"
)

type (
	// Pipeline defines a digital output session. It's immutable and can
	// be used to run multiple sessions.
	Pipeline struct {
		Driver driver.Driver
		// TaskName is passed to the driver. Empty name means that the
		// driver assigns it.
		TaskName string
		// Channels are static channels. They precede dynamic channels in
		// the task.
		Channels digital.Channels
		// Mode of the session. Nil means OnDemand.
		Mode digital.Mode
		// Logger of the session. Nil means silent logger.
		Logger logrus.FieldLogger
		// Metrics enables session counters in the metric package.
		Metrics bool
	}

	// Session is a running pipeline. It owns a single driver task from
	// activation until it's done.
	Session struct {
		id       string
		out      chan digital.Sample
		done     chan struct{}
		cancelFn context.CancelFunc
		err      error
	}

	// deviceSink holds the state of the device sink executor.
	deviceSink struct {
		Pipeline
		id         string
		log        logrus.FieldLogger
		manager    *task.Manager
		config     <-chan digital.Channels
		handle     *task.Handle
		dispatcher *dispatch.Dispatcher
		measure    metric.MeasureFunc
	}
)

// Run starts a new session. The task is created when the first value
// is received from config. Later values of config are ignored. Nil
// config means that only static channels are used. Every sample
// received from samples is written to the device and then sent to
// Session.Out. The session ends when samples is closed, context is done
// or write fails. The task is released in any case.
func (p Pipeline) Run(ctx context.Context, config <-chan digital.Channels, samples <-chan digital.Sample) *Session {
	ctx, cancelFn := context.WithCancel(ctx)
	id := xid.New().String()
	out := make(chan digital.Sample)
	s := &deviceSink{
		Pipeline: p,
		id:       id,
		config:   config,
	}
	if s.Mode == nil {
		s.Mode = digital.OnDemand{}
	}
	if s.Logger == nil {
		s.Logger = log.Silent()
	}
	s.log = s.Logger.WithField("session", id)
	s.manager = task.New(p.Driver, task.WithLogger(s.log))

	r := Session{
		id:       id,
		out:      out,
		done:     make(chan struct{}),
		cancelFn: cancelFn,
	}
	go r.run(ctx, runtime.Sink{
		SinkFunc:  s.write,
		StartFunc: s.start,
		FlushFunc: s.flush,
		Receiver:  samples,
		Sender:    out,
	})
	return &r
}

func (r *Session) run(ctx context.Context, e runtime.Executor) {
	for err := range runtime.Run(ctx, e) {
		if r.err == nil {
			r.err = err
		}
	}
	r.cancelFn()
	close(r.out)
	close(r.done)
}

// ID returns unique identifier of the session.
func (r *Session) ID() string {
	return r.id
}

// Out returns samples that were written to the device. It's closed when
// the session is done. Out must be consumed, otherwise the session
// blocks after the first write.
func (r *Session) Out() <-chan digital.Sample {
	return r.out
}

// Cancel ends the session. The task is released before Wait returns.
func (r *Session) Cancel() {
	r.cancelFn()
}

// Wait for the session to finish. Returned error is the first error
// occurred in the session. Nil is returned if the session ended because
// samples were closed or it was cancelled.
func (r *Session) Wait() error {
	<-r.done
	return r.err
}

func (s *deviceSink) start(ctx context.Context) error {
	var dynamic digital.Channels
	if s.config != nil {
		select {
		case cs, ok := <-s.config:
			if !ok {
				return fmt.Errorf("%w: configuration closed before the first value", digital.ErrConfiguration)
			}
			dynamic = cs
		case <-ctx.Done():
			return io.EOF
		}
		go s.ignore(ctx)
	}

	h, err := s.manager.Create(digital.Concat(s.Channels, dynamic...), s.TaskName)
	if err != nil {
		return err
	}
	if c, ok := s.Mode.(digital.Clocked); ok {
		if err := s.manager.ConfigureClock(h, c); err != nil {
			s.manager.Teardown(ctx, h)
			return err
		}
	}
	s.handle = h
	s.dispatcher = dispatch.New(h.Writer(), h.Mode())
	if s.Metrics {
		var rate float64
		if c, ok := s.Mode.(digital.Clocked); ok {
			rate = c.SampleRate
		}
		s.measure = metric.Meter(s.Mode, rate)
	}
	s.log.Infof("task %q started with %d channels", h.Name(), len(s.Channels)+len(dynamic))
	return nil
}

// ignore drains configurations received after the first one.
func (s *deviceSink) ignore(ctx context.Context) {
	for {
		select {
		case _, ok := <-s.config:
			if !ok {
				return
			}
			s.log.Debug("configuration ignored: task is already created")
		case <-ctx.Done():
			return
		}
	}
}

func (s *deviceSink) write(v digital.Sample) error {
	if err := s.dispatcher.Dispatch(v); err != nil {
		s.manager.Abort(s.handle)
		s.log.Errorf("write failed: %v", err)
		return err
	}
	if s.measure != nil {
		s.measure(int64(dispatch.Len(v)))
	}
	return nil
}

// flush releases the task. Teardown errors are logged by the manager
// and don't fail the session. Cancellation of the session doesn't cut
// the wait of finite task short.
func (s *deviceSink) flush(ctx context.Context) error {
	s.manager.Teardown(context.WithoutCancel(ctx), s.handle)
	s.log.Infof("task %q released", s.handle.Name())
	return nil
}
