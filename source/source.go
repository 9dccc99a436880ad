// Package source provides producers of digital samples: files, matrices
// and binary frames.
package source

import (
	"context"
	"io"

	"pipelined.dev/digital"
)

// Reader reads matrices one by one. It returns io.EOF when there are no
// more matrices.
type Reader interface {
	Next() (digital.Matrix, error)
}

// Emit returns a channel that yields provided samples in order. The
// channel is closed after the last sample or when context is done.
func Emit(ctx context.Context, samples ...digital.Sample) <-chan digital.Sample {
	out := make(chan digital.Sample)
	go func() {
		defer close(out)
		for _, s := range samples {
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ReadAll reads all matrices from the reader.
func ReadAll(r Reader) ([]digital.Sample, error) {
	var samples []digital.Sample
	for {
		m, err := r.Next()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
		samples = append(samples, m)
	}
}
