package source

import (
	"encoding/binary"
	"fmt"
	"io"

	"pipelined.dev/digital"
)

const (
	// frameMagic starts every encoded frame.
	frameMagic uint32 = 0x4c544744
	// MaxFrameElements limits the number of elements of decoded frame.
	MaxFrameElements = 1 << 24
)

// frameHeader precedes little-endian matrix data in encoded frames.
type frameHeader struct {
	Magic uint32
	Depth uint8
	_     [3]byte
	Rows  uint32
	Cols  uint32
}

// Encode writes matrix as a binary frame.
func Encode(w io.Writer, m digital.Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Rows*m.Cols > MaxFrameElements {
		return fmt.Errorf("%w: frame shape %dx%d exceeds %d elements", digital.ErrUnsupportedFormat, m.Rows, m.Cols, MaxFrameElements)
	}
	h := frameHeader{
		Magic: frameMagic,
		Depth: uint8(m.Depth),
		Rows:  uint32(m.Rows),
		Cols:  uint32(m.Cols),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}

// Decode reads a single binary frame. io.EOF is returned if there are no
// more frames.
func Decode(r io.Reader) (digital.Matrix, error) {
	var h frameHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return digital.Matrix{}, err
	}
	if h.Magic != frameMagic {
		return digital.Matrix{}, fmt.Errorf("%w: frame magic %#x", digital.ErrUnsupportedFormat, h.Magic)
	}
	if h.Rows != 0 && uint64(h.Cols) > MaxFrameElements/uint64(h.Rows) {
		return digital.Matrix{}, fmt.Errorf("%w: frame shape %dx%d exceeds %d elements", digital.ErrUnsupportedFormat, h.Rows, h.Cols, MaxFrameElements)
	}
	n := int(h.Rows) * int(h.Cols)
	var data interface{}
	switch d := digital.Depth(h.Depth); d {
	case digital.U8:
		data = make([]uint8, n)
	case digital.S8:
		data = make([]int8, n)
	case digital.U16:
		data = make([]uint16, n)
	case digital.S16:
		data = make([]int16, n)
	case digital.S32:
		data = make([]int32, n)
	case digital.F32:
		data = make([]float32, n)
	case digital.F64:
		data = make([]float64, n)
	default:
		return digital.Matrix{}, fmt.Errorf("%w: frame depth %v", digital.ErrUnsupportedFormat, d)
	}
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return digital.Matrix{}, fmt.Errorf("frame data: %w", err)
	}
	return digital.NewMatrix(int(h.Rows), int(h.Cols), data)
}

// Frames reads consequent binary frames.
type Frames struct {
	r io.Reader
}

// NewFrames returns a reader of binary frames.
func NewFrames(r io.Reader) *Frames {
	return &Frames{r: r}
}

// Next returns the next frame.
func (f *Frames) Next() (digital.Matrix, error) {
	return Decode(f.r)
}
