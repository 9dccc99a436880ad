// Package dispatch converts samples into driver buffers and writes them.
package dispatch

import (
	"fmt"

	"pipelined.dev/digital"
	"pipelined.dev/digital/driver"
	"pipelined.dev/digital/internal/pool"
)

type (
	// Dispatcher performs exactly one driver write per sample. Samples
	// that don't fit the mode are rejected before any driver call.
	Dispatcher struct {
		writer driver.Writer
		mode   digital.Mode
	}

	integer interface {
		~uint8 | ~int8 | ~uint16 | ~int16 | ~int32
	}
)

// New returns dispatcher for the task writer and its mode.
func New(w driver.Writer, mode digital.Mode) *Dispatcher {
	return &Dispatcher{
		writer: w,
		mode:   mode,
	}
}

// Dispatch writes the sample. On-demand mode accepts Scalar, Vector and
// BytePort. Clocked mode accepts Matrix of integer depth. Driver failures
// are returned as digital.ErrDeviceWrite.
func (d *Dispatcher) Dispatch(s digital.Sample) error {
	switch d.mode.(type) {
	case digital.OnDemand:
		return d.onDemand(s)
	case digital.Clocked:
		return d.clocked(s)
	}
	return fmt.Errorf("%w: unknown mode %T", digital.ErrUnsupportedFormat, d.mode)
}

func (d *Dispatcher) onDemand(s digital.Sample) error {
	switch v := s.(type) {
	case digital.Scalar:
		return writeErr(d.writer.WriteSingleSampleLines(true, []bool{bool(v)}))
	case digital.Vector:
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector", digital.ErrUnsupportedFormat)
		}
		return writeErr(d.writer.WriteSingleSampleLines(true, v))
	case digital.BytePort:
		if len(v) == 0 {
			return fmt.Errorf("%w: empty port sample", digital.ErrUnsupportedFormat)
		}
		return writeErr(d.writer.WriteSingleSamplePort(true, v))
	}
	return fmt.Errorf("%w: %T can't be written on demand", digital.ErrUnsupportedFormat, s)
}

func (d *Dispatcher) clocked(s digital.Sample) error {
	m, ok := s.(digital.Matrix)
	if !ok {
		return fmt.Errorf("%w: %T can't be written with sample clock", digital.ErrUnsupportedFormat, s)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	switch m.Depth {
	case digital.U8, digital.S8:
		p := pool.Get[uint8](m.Rows, m.Cols)
		b := p.Alloc()
		defer p.Free(b)
		switch data := m.Data.(type) {
		case []uint8:
			convert(b.Data, data)
		case []int8:
			convert(b.Data, data)
		}
		return writeErr(d.writer.WriteMultiSamplePort8(true, b))
	case digital.U16, digital.S16:
		p := pool.Get[uint16](m.Rows, m.Cols)
		b := p.Alloc()
		defer p.Free(b)
		switch data := m.Data.(type) {
		case []uint16:
			convert(b.Data, data)
		case []int16:
			convert(b.Data, data)
		}
		return writeErr(d.writer.WriteMultiSamplePort16(true, b))
	case digital.S32:
		p := pool.Get[int32](m.Rows, m.Cols)
		b := p.Alloc()
		defer p.Free(b)
		convert(b.Data, m.Data.([]int32))
		return writeErr(d.writer.WriteMultiSamplePort32(true, b))
	}
	return fmt.Errorf("%w: elements must have integer depth, got %v", digital.ErrUnsupportedFormat, m.Depth)
}

// convert copies values into buffer of the target element type. Signed
// values keep their bit pattern.
func convert[D, S integer](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

func writeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", digital.ErrDeviceWrite, err)
}

// Len returns number of samples per channel.
func Len(s digital.Sample) int {
	if m, ok := s.(digital.Matrix); ok {
		return m.Cols
	}
	return 1
}
