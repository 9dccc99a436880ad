// Package driver defines the interface of digital output device drivers.
//
// Implementations wrap a vendor driver. The simulated package provides a
// software device and the mock package an instrumented fake for tests.
package driver

import (
	"context"

	"pipelined.dev/digital"
)

type (
	// Driver opens new device tasks.
	Driver interface {
		// NewTask creates an empty task. Empty name means that the driver
		// generates one.
		NewTask(name string) (Task, error)
	}

	// Task is a driver-side handle of a configured output operation. Task
	// is not safe for concurrent use.
	Task interface {
		// CreateChannel adds a virtual channel to the task.
		CreateChannel(lines, name string, grouping digital.Grouping) error
		// Verify checks that the assembled task is valid.
		Verify() error
		// ConfigureSampleClock sets up timing of buffered writes. Empty
		// source means the internal clock of the device.
		ConfigureSampleClock(source string, rate float64, edge digital.Edge, mode digital.QuantityMode, bufferSize int) error
		// Writer returns the writer bound to the task output stream.
		Writer() Writer
		// WaitUntilDone blocks until the task has generated all samples
		// or context is done.
		WaitUntilDone(context.Context) error
		Stop() error
		Dispose() error
	}

	// Writer writes samples to the task channels. Buffers passed to the
	// writer are only valid during the call and must not be retained.
	Writer interface {
		// WriteSingleSampleLines writes one logical value per line.
		WriteSingleSampleLines(autoStart bool, data []bool) error
		// WriteSingleSamplePort writes one value per port channel.
		WriteSingleSamplePort(autoStart bool, data []uint8) error
		WriteMultiSamplePort8(autoStart bool, data Buffer[uint8]) error
		WriteMultiSamplePort16(autoStart bool, data Buffer[uint16]) error
		WriteMultiSamplePort32(autoStart bool, data Buffer[int32]) error
	}

	// Buffer is a row-major block of port samples. Rows are channels and
	// columns are samples.
	Buffer[T uint8 | uint16 | int32] struct {
		Rows int
		Cols int
		Data []T
	}
)

// At returns the value of the sample at row r and column c.
func (b Buffer[T]) At(r, c int) T {
	return b.Data[r*b.Cols+c]
}

// Row returns samples of a single channel.
func (b Buffer[T]) Row(r int) []T {
	return b.Data[r*b.Cols : (r+1)*b.Cols]
}
