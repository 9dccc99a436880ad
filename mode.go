package digital

import (
	"fmt"
	"strings"
)

// Edge defines on which edge of a clock pulse sampling takes place.
type Edge int

const (
	// Rising edge of the clock.
	Rising Edge = iota
	// Falling edge of the clock.
	Falling
)

// QuantityMode defines whether a clocked task generates a finite number
// of samples or generates them continuously.
type QuantityMode int

const (
	// Continuous generation, buffer size is the size of the device buffer.
	Continuous QuantityMode = iota
	// Finite generation, buffer size is the number of samples.
	Finite
)

// Defaults of the clocked mode.
const (
	DefaultSampleRate = 1000.0
	DefaultBufferSize = 1000
)

type (
	// Mode defines how samples are written. It's either OnDemand or
	// Clocked.
	Mode interface {
		mode()
	}

	// OnDemand writes every sample immediately, without a clock.
	OnDemand struct{}

	// Clocked writes buffered samples synchronized to a sample clock.
	Clocked struct {
		// SignalSource is the source terminal of the clock. Empty value
		// means the internal clock of the device.
		SignalSource string
		// SampleRate in samples per second.
		SampleRate   float64
		ActiveEdge   Edge
		QuantityMode QuantityMode
		// BufferSize is the number of samples to generate for finite
		// mode or the size of the buffer for continuous mode.
		BufferSize int
	}
)

func (OnDemand) mode() {}
func (Clocked) mode()  {}

// DefaultClocked returns continuous clocked mode that uses the internal
// clock of the device.
func DefaultClocked() Clocked {
	return Clocked{
		SampleRate:   DefaultSampleRate,
		ActiveEdge:   Rising,
		QuantityMode: Continuous,
		BufferSize:   DefaultBufferSize,
	}
}

// Validate checks that clock parameters are within the valid range.
func (c Clocked) Validate() error {
	if !(c.SampleRate > 0) {
		return fmt.Errorf("%w: sample rate must be positive: %v", ErrConfiguration, c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive: %d", ErrConfiguration, c.BufferSize)
	}
	if c.ActiveEdge != Rising && c.ActiveEdge != Falling {
		return fmt.Errorf("%w: invalid active edge: %v", ErrConfiguration, c.ActiveEdge)
	}
	if c.QuantityMode != Continuous && c.QuantityMode != Finite {
		return fmt.Errorf("%w: invalid quantity mode: %v", ErrConfiguration, c.QuantityMode)
	}
	return nil
}

// IsFinite returns true if mode is clocked with finite generation.
func IsFinite(m Mode) bool {
	c, ok := m.(Clocked)
	return ok && c.QuantityMode == Finite
}

// ParseEdge returns edge for its textual representation.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rising":
		return Rising, nil
	case "falling":
		return Falling, nil
	}
	return 0, fmt.Errorf("%w: unknown edge %q", ErrConfiguration, s)
}

// ParseQuantityMode returns quantity mode for its textual representation.
func ParseQuantityMode(s string) (QuantityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous", "continuoussamples":
		return Continuous, nil
	case "finite", "finitesamples":
		return Finite, nil
	}
	return 0, fmt.Errorf("%w: unknown quantity mode %q", ErrConfiguration, s)
}

func (e Edge) String() string {
	switch e {
	case Rising:
		return "Rising"
	case Falling:
		return "Falling"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

func (q QuantityMode) String() string {
	switch q {
	case Continuous:
		return "Continuous"
	case Finite:
		return "Finite"
	}
	return fmt.Sprintf("QuantityMode(%d)", int(q))
}
