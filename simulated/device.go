// Package simulated provides a software digital output device. It
// allows to run sessions without hardware.
package simulated

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/digital"
	"pipelined.dev/digital/driver"
	"pipelined.dev/digital/log"
)

// MaxSampleRate is the maximum rate of the sample clock.
const MaxSampleRate = 10e6

var (
	// ErrInvalidLines is returned if line specifier doesn't address lines
	// of the device.
	ErrInvalidLines = errors.New("invalid lines")
	// ErrLinesReserved is returned if lines are used by another task.
	ErrLinesReserved = errors.New("lines reserved")
	// ErrInvalidState is returned if task method is called in a wrong
	// state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidData is returned if written data doesn't match channels.
	ErrInvalidData = errors.New("invalid data")
)

type (
	// Device is a simulated device with a number of 8-line ports. It
	// implements driver.Driver.
	Device struct {
		name  string
		ports int
		log   logrus.FieldLogger

		mu       sync.Mutex
		state    []uint8
		reserved map[line]string
	}

	// Option provides a way to set functional parameters to device.
	Option func(*Device)

	// Task is a simulated task. It implements driver.Task and
	// driver.Writer.
	Task struct {
		device   *Device
		name     string
		channels []channel
		clock    *digital.Clocked
		verified bool
		started  bool
		disposed bool
		// end of generation of written samples.
		doneAt time.Time
	}

	// channel is a virtual channel.
	channel struct {
		name  string
		lines []line
	}
)

// WithLogger sets logger to device. Written data is logged on debug
// level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Device) {
		d.log = l
	}
}

// New returns a device with provided name and number of ports.
func New(name string, ports int, options ...Option) *Device {
	d := &Device{
		name:     name,
		ports:    ports,
		log:      log.Silent(),
		state:    make([]uint8, ports),
		reserved: make(map[line]string),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Port returns current output value of the port.
func (d *Device) Port(port int) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[port]
}

// Line returns current output value of the line.
func (d *Device) Line(port, l int) bool {
	return d.Port(port)&(1<<l) != 0
}

// NewTask implements driver.Driver. Empty name is replaced with a
// unique one.
func (d *Device) NewTask(name string) (driver.Task, error) {
	if name == "" {
		name = "task-" + xid.New().String()
	}
	d.log.Debugf("%s: new task %s", d.name, name)
	return &Task{
		device: d,
		name:   name,
	}, nil
}

func (d *Device) reserve(task string, ls []line) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range ls {
		if owner, ok := d.reserved[l]; ok && owner != task {
			return fmt.Errorf("%w: %s/%v is used by task %s", ErrLinesReserved, d.name, l, owner)
		}
	}
	for _, l := range ls {
		d.reserved[l] = task
	}
	return nil
}

func (d *Device) release(task string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for l, owner := range d.reserved {
		if owner == task {
			delete(d.reserved, l)
		}
	}
}

// set applies value to lines. Bits of the value are addressed by the
// line position within the ports of the channel, starting from the lowest
// port.
func (d *Device) set(ls []line, value uint32) {
	base := d.ports
	for _, l := range ls {
		if l.port < base {
			base = l.port
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range ls {
		if value&(1<<((l.port-base)*LinesPerPort+l.line)) != 0 {
			d.state[l.port] |= 1 << l.line
		} else {
			d.state[l.port] &^= 1 << l.line
		}
	}
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// CreateChannel implements driver.Task. One channel per line creates a
// virtual channel for every addressed line.
func (t *Task) CreateChannel(lines, name string, grouping digital.Grouping) error {
	if err := t.check("create channel", false); err != nil {
		return err
	}
	if t.verified {
		return fmt.Errorf("%w: task %s: create channel after verify", ErrInvalidState, t.name)
	}
	groups, err := parseLines(t.device.name, t.device.ports, lines)
	if err != nil {
		return err
	}
	var all []line
	for _, g := range groups {
		all = append(all, g...)
	}

	var created []channel
	switch grouping {
	case digital.OneChannelForAllLines:
		if name == "" {
			name = lines
		}
		created = append(created, channel{name: name, lines: all})
	default:
		for i, l := range all {
			n := name
			switch {
			case n == "":
				n = fmt.Sprintf("%s/%v", t.device.name, l)
			case len(all) > 1:
				n = fmt.Sprintf("%s%d", name, i)
			}
			created = append(created, channel{name: n, lines: []line{l}})
		}
	}
	for _, c := range created {
		for _, existing := range t.channels {
			if strings.EqualFold(existing.name, c.name) {
				return fmt.Errorf("%w: task %s: duplicate channel name %q", ErrInvalidLines, t.name, c.name)
			}
		}
	}
	t.channels = append(t.channels, created...)
	return nil
}

// Verify implements driver.Task. Lines are reserved for the task until
// it's disposed.
func (t *Task) Verify() error {
	if err := t.check("verify", false); err != nil {
		return err
	}
	if len(t.channels) == 0 {
		return fmt.Errorf("%w: task %s has no channels", ErrInvalidState, t.name)
	}
	used := make(map[line]string)
	var ls []line
	for _, c := range t.channels {
		for _, l := range c.lines {
			if other, ok := used[l]; ok {
				return fmt.Errorf("%w: %v is used by channels %q and %q", ErrLinesReserved, l, other, c.name)
			}
			used[l] = c.name
			ls = append(ls, l)
		}
	}
	if err := t.device.reserve(t.name, ls); err != nil {
		return err
	}
	t.verified = true
	return nil
}

// ConfigureSampleClock implements driver.Task.
func (t *Task) ConfigureSampleClock(source string, rate float64, edge digital.Edge, mode digital.QuantityMode, bufferSize int) error {
	if err := t.check("configure clock", true); err != nil {
		return err
	}
	if !(rate > 0) || rate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidData, rate)
	}
	if bufferSize <= 0 {
		return fmt.Errorf("%w: buffer size %d", ErrInvalidData, bufferSize)
	}
	t.clock = &digital.Clocked{
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

// WaitUntilDone implements driver.Task. It blocks until all written
// samples are generated.
func (t *Task) WaitUntilDone(ctx context.Context) error {
	if err := t.check("wait", false); err != nil {
		return err
	}
	if t.clock == nil || t.clock.QuantityMode != digital.Finite {
		return fmt.Errorf("%w: task %s: wait for non-finite task", ErrInvalidState, t.name)
	}
	timer := time.NewTimer(time.Until(t.doneAt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop implements driver.Task.
func (t *Task) Stop() error {
	if err := t.check("stop", false); err != nil {
		return err
	}
	t.started = false
	return nil
}

// Dispose implements driver.Task. Reserved lines are released.
func (t *Task) Dispose() error {
	if t.disposed {
		return fmt.Errorf("%w: task %s is already disposed", ErrInvalidState, t.name)
	}
	t.device.release(t.name)
	t.started = false
	t.disposed = true
	return nil
}

// WriteSingleSampleLines implements driver.Writer. Data must contain
// one value per line of the task.
func (t *Task) WriteSingleSampleLines(autoStart bool, data []bool) error {
	if err := t.prepare("write lines", autoStart, false); err != nil {
		return err
	}
	var ls []line
	for _, c := range t.channels {
		ls = append(ls, c.lines...)
	}
	if len(data) != len(ls) {
		return fmt.Errorf("%w: %d values for %d lines", ErrInvalidData, len(data), len(ls))
	}
	for i, l := range ls {
		var v uint32
		if data[i] {
			v = 1 << l.line
		}
		t.device.set([]line{l}, v)
	}
	t.device.log.Debugf("%s: task %s lines %v", t.device.name, t.name, data)
	return nil
}

// WriteSingleSamplePort implements driver.Writer. Data must contain one
// port value per channel.
func (t *Task) WriteSingleSamplePort(autoStart bool, data []uint8) error {
	if err := t.prepare("write port", autoStart, false); err != nil {
		return err
	}
	if len(data) != len(t.channels) {
		return fmt.Errorf("%w: %d values for %d channels", ErrInvalidData, len(data), len(t.channels))
	}
	for i, c := range t.channels {
		t.device.set(c.lines, uint32(data[i]))
	}
	t.device.log.Debugf("%s: task %s port %v", t.device.name, t.name, data)
	return nil
}

// WriteMultiSamplePort8 implements driver.Writer.
func (t *Task) WriteMultiSamplePort8(autoStart bool, data driver.Buffer[uint8]) error {
	return writeMulti(t, autoStart, data)
}

// WriteMultiSamplePort16 implements driver.Writer.
func (t *Task) WriteMultiSamplePort16(autoStart bool, data driver.Buffer[uint16]) error {
	return writeMulti(t, autoStart, data)
}

// WriteMultiSamplePort32 implements driver.Writer.
func (t *Task) WriteMultiSamplePort32(autoStart bool, data driver.Buffer[int32]) error {
	return writeMulti(t, autoStart, data)
}

// writeMulti generates samples column by column. Device keeps the value
// of the last column.
func writeMulti[T uint8 | uint16 | int32](t *Task, autoStart bool, data driver.Buffer[T]) error {
	if err := t.prepare("write samples", autoStart, true); err != nil {
		return err
	}
	if data.Rows != len(t.channels) {
		return fmt.Errorf("%w: %d rows for %d channels", ErrInvalidData, data.Rows, len(t.channels))
	}
	if len(data.Data) != data.Rows*data.Cols {
		return fmt.Errorf("%w: %d values for %dx%d buffer", ErrInvalidData, len(data.Data), data.Rows, data.Cols)
	}
	for col := 0; col < data.Cols; col++ {
		for i, c := range t.channels {
			t.device.set(c.lines, uint32(data.At(i, col)))
		}
	}
	generation := time.Duration(float64(data.Cols) / t.clock.SampleRate * float64(time.Second))
	if now := time.Now(); t.doneAt.Before(now) {
		t.doneAt = now
	}
	t.doneAt = t.doneAt.Add(generation)
	t.device.log.Debugf("%s: task %s samples %s", t.device.name, t.name, spew.Sdump(data))
	return nil
}

// check returns error if task is disposed or it must be verified and
// it's not.
func (t *Task) check(op string, verified bool) error {
	if t.disposed {
		return fmt.Errorf("%w: task %s: %s after dispose", ErrInvalidState, t.name, op)
	}
	if verified && !t.verified {
		return fmt.Errorf("%w: task %s: %s before verify", ErrInvalidState, t.name, op)
	}
	return nil
}

// prepare checks the state before write and starts the task if needed.
func (t *Task) prepare(op string, autoStart, clocked bool) error {
	if err := t.check(op, true); err != nil {
		return err
	}
	if clocked != (t.clock != nil) {
		if clocked {
			return fmt.Errorf("%w: task %s: %s without sample clock", ErrInvalidState, t.name, op)
		}
		return fmt.Errorf("%w: task %s: %s with sample clock", ErrInvalidState, t.name, op)
	}
	if !t.started {
		if !autoStart {
			return fmt.Errorf("%w: task %s: %s before start", ErrInvalidState, t.name, op)
		}
		t.started = true
	}
	return nil
}
