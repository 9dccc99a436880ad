package source

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/digital"
)

// WAV reads matrices from wav file. Every wav channel is a row of the
// matrix. 8-bit files are read as U8, 16-bit as S16, 24 and 32-bit as
// S32.
type WAV struct {
	decoder *wav.Decoder
	depth   digital.Depth
	buffer  *audio.IntBuffer
}

// NewWAV returns a reader of matrices with at most frames columns.
func NewWAV(r io.ReadSeeker, frames int) (*WAV, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: wav frames must be positive: %d", digital.ErrConfiguration, frames)
	}
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: wav is not valid", digital.ErrUnsupportedFormat)
	}
	var depth digital.Depth
	switch decoder.BitDepth {
	case 8:
		depth = digital.U8
	case 16:
		depth = digital.S16
	case 24, 32:
		depth = digital.S32
	default:
		return nil, fmt.Errorf("%w: wav bit depth %d", digital.ErrUnsupportedFormat, decoder.BitDepth)
	}
	format := decoder.Format()
	return &WAV{
		decoder: decoder,
		depth:   depth,
		buffer: &audio.IntBuffer{
			Format:         format,
			Data:           make([]int, frames*format.NumChannels),
			SourceBitDepth: int(decoder.BitDepth),
		},
	}, nil
}

// Next returns the next matrix. The last matrix can have less columns.
func (w *WAV) Next() (digital.Matrix, error) {
	n, err := w.decoder.PCMBuffer(w.buffer)
	if err != nil {
		return digital.Matrix{}, fmt.Errorf("wav data: %w", err)
	}
	if n == 0 {
		return digital.Matrix{}, io.EOF
	}
	channels := w.buffer.Format.NumChannels
	frames := n / channels
	interleaved := w.buffer.Data[:frames*channels]
	var data interface{}
	switch w.depth {
	case digital.U8:
		data = deinterleave[uint8](interleaved, channels)
	case digital.S16:
		data = deinterleave[int16](interleaved, channels)
	default:
		data = deinterleave[int32](interleaved, channels)
	}
	return digital.NewMatrix(channels, frames, data)
}

// deinterleave converts interleaved frames into row-major matrix data.
func deinterleave[T uint8 | int16 | int32](interleaved []int, channels int) []T {
	frames := len(interleaved) / channels
	data := make([]T, len(interleaved))
	for i, v := range interleaved {
		data[(i%channels)*frames+i/channels] = T(v)
	}
	return data
}
