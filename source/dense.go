package source

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"pipelined.dev/digital"
)

// Dense converts numeric matrix into integer matrix of provided depth.
// Every element must be an integer within the range of depth, otherwise
// ErrUnsupportedFormat is returned.
func Dense(m mat.Matrix, depth digital.Depth) (digital.Matrix, error) {
	rows, cols := m.Dims()
	var (
		data interface{}
		ok   bool
	)
	switch depth {
	case digital.U8:
		data, ok = convert[uint8](m, 0, math.MaxUint8)
	case digital.S8:
		data, ok = convert[int8](m, math.MinInt8, math.MaxInt8)
	case digital.U16:
		data, ok = convert[uint16](m, 0, math.MaxUint16)
	case digital.S16:
		data, ok = convert[int16](m, math.MinInt16, math.MaxInt16)
	case digital.S32:
		data, ok = convert[int32](m, math.MinInt32, math.MaxInt32)
	default:
		return digital.Matrix{}, fmt.Errorf("%w: dense conversion to %v", digital.ErrUnsupportedFormat, depth)
	}
	if !ok {
		return digital.Matrix{}, fmt.Errorf("%w: matrix has values that are not %v integers", digital.ErrUnsupportedFormat, depth)
	}
	return digital.NewMatrix(rows, cols, data)
}

// convert returns false if any value cannot be represented without loss.
func convert[T int8 | uint8 | int16 | uint16 | int32](m mat.Matrix, min, max float64) ([]T, bool) {
	rows, cols := m.Dims()
	data := make([]T, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v != math.Trunc(v) || v < min || v > max {
				return nil, false
			}
			data = append(data, T(v))
		}
	}
	return data, true
}
