package digital

import "fmt"

// Depth is the bit width and signedness of matrix elements.
type Depth int

// Matrix depths. Only integer depths can be written to the device.
const (
	U8 Depth = iota
	S8
	U16
	S16
	S32
	F32
	F64
)

type (
	// Sample is a value written to the device within a single driver
	// call. It's one of Scalar, Vector, BytePort or Matrix.
	Sample interface {
		sample()
	}

	// Scalar is a single logical value.
	Scalar bool

	// Vector holds one logical value per line.
	Vector []bool

	// BytePort holds one port value per channel.
	BytePort []byte

	// Matrix is a row-major block of samples. Every row corresponds to a
	// channel and every column to a time-ordered sample. Data is a slice
	// of the type defined by Depth: []uint8, []int8, []uint16, []int16,
	// []int32, []float32 or []float64.
	Matrix struct {
		Rows  int
		Cols  int
		Depth Depth
		Data  interface{}
	}
)

func (Scalar) sample()   {}
func (Vector) sample()   {}
func (BytePort) sample() {}
func (Matrix) sample()   {}

// NewMatrix returns a matrix with depth defined by the data type. Data
// is not copied.
func NewMatrix(rows, cols int, data interface{}) (Matrix, error) {
	var depth Depth
	switch data.(type) {
	case []uint8:
		depth = U8
	case []int8:
		depth = S8
	case []uint16:
		depth = U16
	case []int16:
		depth = S16
	case []int32:
		depth = S32
	case []float32:
		depth = F32
	case []float64:
		depth = F64
	default:
		return Matrix{}, fmt.Errorf("%w: matrix data type %T", ErrUnsupportedFormat, data)
	}
	m := Matrix{
		Rows:  rows,
		Cols:  cols,
		Depth: depth,
		Data:  data,
	}
	return m, m.Validate()
}

// MatrixFromBools converts rows of logical values into U8 matrix. All
// rows must have the same length.
func MatrixFromBools(rows [][]bool) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{Depth: U8, Data: []uint8{}}, nil
	}
	cols := len(rows[0])
	data := make([]uint8, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("%w: row %d has %d values, expected %d", ErrUnsupportedFormat, i, len(row), cols)
		}
		for _, v := range row {
			if v {
				data = append(data, 1)
			} else {
				data = append(data, 0)
			}
		}
	}
	return Matrix{
		Rows:  len(rows),
		Cols:  cols,
		Depth: U8,
		Data:  data,
	}, nil
}

// Validate checks that data type matches depth and data length matches
// the shape.
func (m Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("%w: negative matrix shape %dx%d", ErrUnsupportedFormat, m.Rows, m.Cols)
	}
	var n int
	switch data := m.Data.(type) {
	case []uint8:
		n = len(data)
		if m.Depth != U8 {
			return m.depthMismatch()
		}
	case []int8:
		n = len(data)
		if m.Depth != S8 {
			return m.depthMismatch()
		}
	case []uint16:
		n = len(data)
		if m.Depth != U16 {
			return m.depthMismatch()
		}
	case []int16:
		n = len(data)
		if m.Depth != S16 {
			return m.depthMismatch()
		}
	case []int32:
		n = len(data)
		if m.Depth != S32 {
			return m.depthMismatch()
		}
	case []float32:
		n = len(data)
		if m.Depth != F32 {
			return m.depthMismatch()
		}
	case []float64:
		n = len(data)
		if m.Depth != F64 {
			return m.depthMismatch()
		}
	default:
		return fmt.Errorf("%w: matrix data type %T", ErrUnsupportedFormat, m.Data)
	}
	if n != m.Rows*m.Cols {
		return fmt.Errorf("%w: matrix %dx%d has %d elements", ErrUnsupportedFormat, m.Rows, m.Cols, n)
	}
	return nil
}

func (m Matrix) depthMismatch() error {
	return fmt.Errorf("%w: matrix depth %v doesn't match data type %T", ErrUnsupportedFormat, m.Depth, m.Data)
}

// IsInteger returns true if depth can be written to the device.
func (d Depth) IsInteger() bool {
	switch d {
	case U8, S8, U16, S16, S32:
		return true
	}
	return false
}

// Bits returns element width in bits.
func (d Depth) Bits() int {
	switch d {
	case U8, S8:
		return 8
	case U16, S16:
		return 16
	case S32, F32:
		return 32
	case F64:
		return 64
	}
	return 0
}

func (d Depth) String() string {
	switch d {
	case U8:
		return "U8"
	case S8:
		return "S8"
	case U16:
		return "U16"
	case S16:
		return "S16"
	case S32:
		return "S32"
	case F32:
		return "F32"
	case F64:
		return "F64"
	}
	return fmt.Sprintf("Depth(%d)", int(d))
}
