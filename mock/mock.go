// Package mock provides an instrumented fake driver and allows to test
// sessions without hardware.
package mock

import (
	"context"
	"fmt"
	"sync"

	"pipelined.dev/digital"
	"pipelined.dev/digital/driver"
)

// Driver methods recorded in the call log.
const (
	NewTask              = "NewTask"
	CreateChannel        = "CreateChannel"
	Verify               = "Verify"
	ConfigureSampleClock = "ConfigureSampleClock"
	WriteLines           = "WriteSingleSampleLines"
	WritePort            = "WriteSingleSamplePort"
	WritePort8           = "WriteMultiSamplePort8"
	WritePort16          = "WriteMultiSamplePort16"
	WritePort32          = "WriteMultiSamplePort32"
	WaitUntilDone        = "WaitUntilDone"
	Stop                 = "Stop"
	Dispose              = "Dispose"
)

type (
	// Driver mocks driver.Driver interface. It records every call of
	// every task into a single ordered log. Error fields are applied to
	// all tasks created by the driver.
	Driver struct {
		ErrorOnNewTask       error
		ErrorOnCreateChannel error
		ErrorOnVerify        error
		ErrorOnClock         error
		ErrorOnWait          error
		ErrorOnStop          error
		ErrorOnDispose       error
		// ErrorOnWrite is returned by the write with index WriteLimit.
		// Zero limit fails the first write.
		ErrorOnWrite error
		WriteLimit   int
		// Done blocks WaitUntilDone until it's closed. Nil channel
		// means that tasks are done immediately.
		Done chan struct{}

		mu    sync.Mutex
		calls []Call
		tasks []*Task
	}

	// Call is a single recorded driver call.
	Call struct {
		Task   string
		Method string
	}

	// Task mocks driver.Task interface.
	Task struct {
		Name     string
		Channels digital.Channels
		Clock    *digital.Clocked
		Started  bool
		Stopped  bool
		Disposed bool
		// Written holds copies of all written samples in order.
		Written []digital.Sample

		driver *Driver
		writes int
	}
)

// NewTask implements driver.Driver.
func (d *Driver) NewTask(name string) (driver.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("task%d", len(d.tasks))
	}
	d.calls = append(d.calls, Call{Task: name, Method: NewTask})
	if d.ErrorOnNewTask != nil {
		return nil, d.ErrorOnNewTask
	}
	t := &Task{
		Name:   name,
		driver: d,
	}
	d.tasks = append(d.tasks, t)
	return t, nil
}

// Calls returns a copy of the call log.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Methods returns names of called methods in order.
func (d *Driver) Methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	methods := make([]string, 0, len(d.calls))
	for _, c := range d.calls {
		methods = append(methods, c.Method)
	}
	return methods
}

// Count returns number of calls of the method.
func (d *Driver) Count(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int
	for _, c := range d.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Mark appends an arbitrary event to the call log. It allows tests to
// check ordering of driver calls against external events.
func (d *Driver) Mark(event string) {
	d.record("", event)
}

// Tasks returns all tasks created by the driver.
func (d *Driver) Tasks() []*Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Task(nil), d.tasks...)
}

// Task returns the last created task or nil.
func (d *Driver) Task() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return nil
	}
	return d.tasks[len(d.tasks)-1]
}

func (d *Driver) record(task, method string) {
	d.mu.Lock()
	d.calls = append(d.calls, Call{Task: task, Method: method})
	d.mu.Unlock()
}

// CreateChannel implements driver.Task.
func (t *Task) CreateChannel(lines, name string, grouping digital.Grouping) error {
	t.driver.record(t.Name, CreateChannel)
	if t.driver.ErrorOnCreateChannel != nil {
		return t.driver.ErrorOnCreateChannel
	}
	t.Channels = append(t.Channels, digital.Channel{Name: name, Lines: lines, Grouping: grouping})
	return nil
}

// Verify implements driver.Task.
func (t *Task) Verify() error {
	t.driver.record(t.Name, Verify)
	return t.driver.ErrorOnVerify
}

// ConfigureSampleClock implements driver.Task.
func (t *Task) ConfigureSampleClock(source string, rate float64, edge digital.Edge, mode digital.QuantityMode, bufferSize int) error {
	t.driver.record(t.Name, ConfigureSampleClock)
	if t.driver.ErrorOnClock != nil {
		return t.driver.ErrorOnClock
	}
	t.Clock = &digital.Clocked{
		SignalSource: source,
		SampleRate:   rate,
		ActiveEdge:   edge,
		QuantityMode: mode,
		BufferSize:   bufferSize,
	}
	return nil
}

// Writer implements driver.Task.
func (t *Task) Writer() driver.Writer {
	return t
}

// WaitUntilDone implements driver.Task.
func (t *Task) WaitUntilDone(ctx context.Context) error {
	if t.driver.Done != nil {
		select {
		case <-t.driver.Done:
		case <-ctx.Done():
			t.driver.record(t.Name, WaitUntilDone)
			return ctx.Err()
		}
	}
	t.driver.record(t.Name, WaitUntilDone)
	return t.driver.ErrorOnWait
}

// Stop implements driver.Task.
func (t *Task) Stop() error {
	t.driver.record(t.Name, Stop)
	t.Stopped = true
	t.Started = false
	return t.driver.ErrorOnStop
}

// Dispose implements driver.Task.
func (t *Task) Dispose() error {
	t.driver.record(t.Name, Dispose)
	t.Disposed = true
	return t.driver.ErrorOnDispose
}

// WriteSingleSampleLines implements driver.Writer.
func (t *Task) WriteSingleSampleLines(autoStart bool, data []bool) error {
	return t.write(WriteLines, autoStart, func() digital.Sample {
		return digital.Vector(append([]bool(nil), data...))
	})
}

// WriteSingleSamplePort implements driver.Writer.
func (t *Task) WriteSingleSamplePort(autoStart bool, data []uint8) error {
	return t.write(WritePort, autoStart, func() digital.Sample {
		return digital.BytePort(append([]uint8(nil), data...))
	})
}

// WriteMultiSamplePort8 implements driver.Writer.
func (t *Task) WriteMultiSamplePort8(autoStart bool, data driver.Buffer[uint8]) error {
	return t.write(WritePort8, autoStart, func() digital.Sample {
		return digital.Matrix{Rows: data.Rows, Cols: data.Cols, Depth: digital.U8, Data: append([]uint8(nil), data.Data...)}
	})
}

// WriteMultiSamplePort16 implements driver.Writer.
func (t *Task) WriteMultiSamplePort16(autoStart bool, data driver.Buffer[uint16]) error {
	return t.write(WritePort16, autoStart, func() digital.Sample {
		return digital.Matrix{Rows: data.Rows, Cols: data.Cols, Depth: digital.U16, Data: append([]uint16(nil), data.Data...)}
	})
}

// WriteMultiSamplePort32 implements driver.Writer.
func (t *Task) WriteMultiSamplePort32(autoStart bool, data driver.Buffer[int32]) error {
	return t.write(WritePort32, autoStart, func() digital.Sample {
		return digital.Matrix{Rows: data.Rows, Cols: data.Cols, Depth: digital.S32, Data: append([]int32(nil), data.Data...)}
	})
}

// write records the call and keeps a copy of data, since buffers are not
// valid after the call returns.
func (t *Task) write(method string, autoStart bool, copyFn func() digital.Sample) error {
	t.driver.record(t.Name, method)
	if t.driver.ErrorOnWrite != nil && t.writes >= t.driver.WriteLimit {
		return t.driver.ErrorOnWrite
	}
	t.writes++
	if autoStart {
		t.Started = true
	}
	t.Written = append(t.Written, copyFn())
	return nil
}
