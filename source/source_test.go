package source_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"pipelined.dev/digital"
	"pipelined.dev/digital/source"
)

func matrix(t *testing.T, rows, cols int, data interface{}) digital.Matrix {
	t.Helper()
	m, err := digital.NewMatrix(rows, cols, data)
	require.NoError(t, err)
	return m
}

func TestEmit(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		in := []digital.Sample{digital.Scalar(true), digital.BytePort{1, 2}}
		var out []digital.Sample
		for s := range source.Emit(context.Background(), in...) {
			out = append(out, s)
		}
		assert.Equal(t, in, out)
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancelFn := context.WithCancel(context.Background())
		c := source.Emit(ctx, digital.Scalar(true), digital.Scalar(false))
		cancelFn()
		for range c {
		}
	})
}

func TestDense(t *testing.T) {
	type params struct {
		data     []float64
		depth    digital.Depth
		expected interface{}
		err      error
		msg      string
	}
	testDense := func(p params) func(*testing.T) {
		return func(t *testing.T) {
			m, err := source.Dense(mat.NewDense(2, 2, p.data), p.depth)
			if p.err != nil {
				assert.True(t, errors.Is(err, p.err), "unexpected error: %v", err)
				if p.msg != "" {
					assert.Contains(t, err.Error(), p.msg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, m.Rows)
			assert.Equal(t, 2, m.Cols)
			assert.Equal(t, p.depth, m.Depth)
			assert.Equal(t, p.expected, m.Data)
		}
	}
	t.Run("u8", testDense(params{
		data:     []float64{0, 1, 254, 255},
		depth:    digital.U8,
		expected: []uint8{0, 1, 254, 255},
	}))
	t.Run("s16", testDense(params{
		data:     []float64{-32768, -1, 1, 32767},
		depth:    digital.S16,
		expected: []int16{-32768, -1, 1, 32767},
	}))
	t.Run("s32", testDense(params{
		data:     []float64{-70000, 0, 70000, 1},
		depth:    digital.S32,
		expected: []int32{-70000, 0, 70000, 1},
	}))
	t.Run("fraction", testDense(params{
		data:  []float64{0, 0.5, 1, 1},
		depth: digital.U8,
		err:   digital.ErrUnsupportedFormat,
		msg:   "not U8 integers",
	}))
	t.Run("overflow", testDense(params{
		data:  []float64{0, 256, 1, 1},
		depth: digital.U8,
		err:   digital.ErrUnsupportedFormat,
		msg:   "not U8 integers",
	}))
	t.Run("negative unsigned", testDense(params{
		data:  []float64{0, -1, 1, 1},
		depth: digital.U16,
		err:   digital.ErrUnsupportedFormat,
		msg:   "not U16 integers",
	}))
	t.Run("float depth", testDense(params{
		data:  []float64{0, 1, 1, 1},
		depth: digital.F64,
		err:   digital.ErrUnsupportedFormat,
	}))
}

func TestNPY(t *testing.T) {
	t.Run("vector", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, npyio.Write(&buf, []int16{1, -1, 2, -2}))
		m, err := source.NPY(&buf)
		require.NoError(t, err)
		assert.Equal(t, matrix(t, 1, 4, []int16{1, -1, 2, -2}), m)
	})
	t.Run("bytes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, npyio.Write(&buf, []uint8{0x0f, 0xf0}))
		m, err := source.NPY(&buf)
		require.NoError(t, err)
		assert.Equal(t, matrix(t, 1, 2, []uint8{0x0f, 0xf0}), m)
	})
	t.Run("dense", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, npyio.Write(&buf, mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})))
		m, err := source.NPY(&buf)
		require.NoError(t, err)
		assert.Equal(t, matrix(t, 2, 3, []float64{1, 2, 3, 4, 5, 6}), m)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := source.NPY(bytes.NewReader([]byte("not a numpy file")))
		assert.True(t, errors.Is(err, digital.ErrUnsupportedFormat))
	})
}

func TestWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	e := wav.NewEncoder(f, 44100, 16, 2, 1)
	err = e.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  44100,
		},
		Data:           []int{1, -1, 2, -2, 3, -3},
		SourceBitDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := source.NewWAV(f, 2)
	require.NoError(t, err)

	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, matrix(t, 2, 2, []int16{1, 2, -1, -2}), m)
	m, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, matrix(t, 2, 1, []int16{3, -3}), m)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWAVInvalid(t *testing.T) {
	_, err := source.NewWAV(bytes.NewReader([]byte("RIFF....")), 16)
	assert.True(t, errors.Is(err, digital.ErrUnsupportedFormat))

	_, err = source.NewWAV(bytes.NewReader(nil), 0)
	assert.True(t, errors.Is(err, digital.ErrConfiguration))
}

func TestFrames(t *testing.T) {
	in := []digital.Sample{
		matrix(t, 2, 3, []int16{1, -2, 3, -4, 5, -6}),
		matrix(t, 1, 2, []uint8{0xaa, 0x55}),
		matrix(t, 1, 1, []int32{-1}),
		matrix(t, 1, 2, []float64{0.5, 1}),
	}
	var buf bytes.Buffer
	for _, s := range in {
		require.NoError(t, source.Encode(&buf, s.(digital.Matrix)))
	}
	out, err := source.ReadAll(source.NewFrames(&buf))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFrameErrors(t *testing.T) {
	t.Run("invalid matrix", func(t *testing.T) {
		err := source.Encode(io.Discard, digital.Matrix{Rows: 2, Cols: 2, Depth: digital.U8, Data: []uint8{1}})
		assert.True(t, errors.Is(err, digital.ErrUnsupportedFormat))
	})
	t.Run("magic", func(t *testing.T) {
		_, err := source.Decode(bytes.NewReader(make([]byte, 16)))
		assert.True(t, errors.Is(err, digital.ErrUnsupportedFormat))
	})
	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, source.Encode(&buf, matrix(t, 1, 4, []int16{1, 2, 3, 4})))
		_, err := source.Decode(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	})
	testShape := func(rows, cols uint32) func(*testing.T) {
		return func(t *testing.T) {
			header := make([]byte, 16)
			binary.LittleEndian.PutUint32(header[0:], 0x4c544744)
			header[4] = byte(digital.U8)
			binary.LittleEndian.PutUint32(header[8:], rows)
			binary.LittleEndian.PutUint32(header[12:], cols)
			_, err := source.Decode(bytes.NewReader(header))
			assert.True(t, errors.Is(err, digital.ErrUnsupportedFormat), "unexpected error: %v", err)
		}
	}
	t.Run("overflowing shape", testShape(0xffffffff, 0xffffffff))
	t.Run("huge shape", testShape(1<<16, 1<<16))
	t.Run("too many elements", testShape(1, source.MaxFrameElements+1))
	t.Run("empty", func(t *testing.T) {
		_, err := source.Decode(bytes.NewReader(nil))
		assert.Equal(t, io.EOF, err)
	})
}
