package source

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"

	"pipelined.dev/digital"
)

// NPY reads a single matrix from numpy array. One-dimensional arrays are
// read as a single row. Two-dimensional arrays must be in C order.
func NPY(r io.Reader) (digital.Matrix, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return digital.Matrix{}, fmt.Errorf("%w: npy: %w", digital.ErrUnsupportedFormat, err)
	}
	rows, cols, err := npyShape(npy.Header)
	if err != nil {
		return digital.Matrix{}, err
	}

	var data interface{}
	switch dtype := npy.Header.Descr.Type; dtype[1:] {
	case "u1":
		data, err = readNPY[uint8](npy)
	case "i1":
		data, err = readNPY[int8](npy)
	case "u2":
		data, err = readNPY[uint16](npy)
	case "i2":
		data, err = readNPY[int16](npy)
	case "i4":
		data, err = readNPY[int32](npy)
	case "f4":
		data, err = readNPY[float32](npy)
	case "f8":
		data, err = readNPY[float64](npy)
	default:
		return digital.Matrix{}, fmt.Errorf("%w: npy dtype %q", digital.ErrUnsupportedFormat, dtype)
	}
	if err != nil {
		return digital.Matrix{}, fmt.Errorf("npy data: %w", err)
	}
	return digital.NewMatrix(rows, cols, data)
}

func readNPY[T any](r *npyio.Reader) ([]T, error) {
	var data []T
	err := r.Read(&data)
	return data, err
}

func npyShape(h npyio.Header) (rows, cols int, err error) {
	if h.Descr.Fortran {
		return 0, 0, fmt.Errorf("%w: npy fortran order", digital.ErrUnsupportedFormat)
	}
	if len(h.Descr.Type) < 3 {
		return 0, 0, fmt.Errorf("%w: npy dtype %q", digital.ErrUnsupportedFormat, h.Descr.Type)
	}
	switch shape := h.Descr.Shape; len(shape) {
	case 1:
		return 1, shape[0], nil
	case 2:
		return shape[0], shape[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: npy shape %v", digital.ErrUnsupportedFormat, shape)
	}
}
