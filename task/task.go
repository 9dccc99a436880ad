// Package task manages the lifecycle of driver tasks: creation from a
// channel set, clock configuration and guaranteed teardown.
package task

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"pipelined.dev/digital"
	"pipelined.dev/digital/driver"
	"pipelined.dev/digital/log"
)

type (
	// Manager creates and releases driver tasks.
	Manager struct {
		driver driver.Driver
		log    logrus.FieldLogger
	}

	// Option provides a way to set functional parameters to manager.
	Option func(*Manager)

	// Handle owns a driver task and its writer. It must be owned by a
	// single session and released with Manager.Teardown.
	Handle struct {
		name     string
		task     driver.Task
		writer   driver.Writer
		clock    *digital.Clocked
		stopped  bool
		released sync.Once
	}

	taskErrors []error
)

// WithLogger sets logger to manager. If this option is not provided,
// silent logger is used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New returns manager for provided driver.
func New(d driver.Driver, options ...Option) *Manager {
	m := &Manager{
		driver: d,
		log:    log.Silent(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Create creates a task with one channel per entry, in order, and
// verifies it. ErrConfiguration is returned if channels are malformed or
// the driver refuses to create a channel. ErrVerification is returned if
// the driver rejects the assembled task. Partially built task is
// disposed on error.
func (m *Manager) Create(channels digital.Channels, name string) (*Handle, error) {
	if err := channels.Validate(); err != nil {
		return nil, err
	}
	t, err := m.driver.NewTask(name)
	if err != nil {
		return nil, fmt.Errorf("%w: new task %q: %w", digital.ErrConfiguration, name, err)
	}
	for i, c := range channels {
		if err := t.CreateChannel(c.Lines, c.Name, c.Grouping); err != nil {
			m.dispose(t, name)
			return nil, fmt.Errorf("%w: channel %d (%v): %w", digital.ErrConfiguration, i, c, err)
		}
		m.log.WithField("task", name).Debugf("created %v", c)
	}
	if err := t.Verify(); err != nil {
		m.dispose(t, name)
		return nil, fmt.Errorf("%w: task %q: %w", digital.ErrVerification, name, err)
	}
	return &Handle{
		name:   name,
		task:   t,
		writer: t.Writer(),
	}, nil
}

// ConfigureClock applies sample clock to the task. It must be called only
// for clocked sessions, before the first write.
func (m *Manager) ConfigureClock(h *Handle, c digital.Clocked) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := h.task.ConfigureSampleClock(c.SignalSource, c.SampleRate, c.ActiveEdge, c.QuantityMode, c.BufferSize); err != nil {
		return fmt.Errorf("%w: sample clock: %w", digital.ErrConfiguration, err)
	}
	h.clock = &c
	m.log.WithField("task", h.name).Debugf("configured clock %+v", c)
	return nil
}

// Abort stops the task after a failed write. Stop error is discarded.
func (m *Manager) Abort(h *Handle) {
	if h.stopped {
		return
	}
	h.stopped = true
	if err := h.task.Stop(); err != nil {
		m.log.WithField("task", h.name).Debugf("stop after write failure: %v", err)
	}
}

// Teardown releases the task. Finite clocked task is waited to complete
// before it's stopped, other tasks are stopped immediately. Task is
// disposed in any case. Only the first call has effect. Returned error
// is informational: the task is released regardless of it.
func (m *Manager) Teardown(ctx context.Context, h *Handle) error {
	var errs taskErrors
	h.released.Do(func() {
		if !h.stopped {
			if h.clock != nil && h.clock.QuantityMode == digital.Finite {
				if err := h.task.WaitUntilDone(ctx); err != nil {
					errs = append(errs, fmt.Errorf("wait until done: %w", err))
				}
			}
			h.stopped = true
			if err := h.task.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop: %w", err))
			}
		}
		if err := h.task.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose: %w", err))
		}
	})
	if err := errs.ret(); err != nil {
		m.log.WithField("task", h.name).Warnf("teardown: %v", err)
		return err
	}
	return nil
}

func (m *Manager) dispose(t driver.Task, name string) {
	if err := t.Dispose(); err != nil {
		m.log.WithField("task", name).Debugf("dispose after create failure: %v", err)
	}
}

// Name returns the name the task was created with.
func (h *Handle) Name() string {
	return h.name
}

// Writer returns the writer of the task.
func (h *Handle) Writer() driver.Writer {
	return h.writer
}

// Mode returns the writer mode of the task.
func (h *Handle) Mode() digital.Mode {
	if h.clock != nil {
		return *h.clock
	}
	return digital.OnDemand{}
}

func (e taskErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows to match joined errors with errors.Is.
func (e taskErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error is list is empty.
func (e taskErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
