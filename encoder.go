// encoder.go
package sea

import (
	"errors"
	"fmt"
	"io"

	"github.com/llehouerou/go-sea/internal/bits"
)

// ErrClosed is returned when writing to a closed Encoder.
var ErrClosed = errors.New("sea: encoder closed")

// Encoder writes a streamed packet to an io.Writer chunk by chunk.
//
// The total length is not known up front, so the header carries the
// streamed flag and a zero frame count; decoders read chunks until the
// input ends. Encoder instances are NOT safe for concurrent use.
type Encoder struct {
	w       io.Writer
	header  *Header
	enc     *chunkEncoder
	pending []int16
	started bool
	closed  bool
	err     error
}

// NewEncoder returns an Encoder writing to w. Arguments are validated as
// for Encode. Nothing is written until the first full chunk or Close.
func NewEncoder(w io.Writer, sampleRate, channels uint32, settings *EncoderSettings, opts ...Option) (*Encoder, error) {
	o := newOptions(opts)

	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}
	s.Normalize()

	if err := checkArgs(sampleRate, channels, s, o.metadata); err != nil {
		return nil, err
	}

	h := newHeader(s, sampleRate, uint8(channels), 0, o.metadata)
	h.Streamed = true

	l := newLayout(h)
	return &Encoder{
		w:       w,
		header:  h,
		enc:     newChunkEncoder(l, o),
		pending: make([]int16, 0, l.chunkSamples()),
	}, nil
}

// Header returns the header the Encoder writes.
func (e *Encoder) Header() *Header {
	return e.header
}

// Write buffers interleaved samples and writes every completed chunk.
// len(samples) must be a multiple of the channel count.
func (e *Encoder) Write(samples []int16) error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrClosed
	}
	if len(samples)%e.enc.channels != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			ErrInvalidArgument, len(samples), e.enc.channels)
	}

	full := e.enc.chunkSamples()
	for len(samples) > 0 {
		n := min(full-len(e.pending), len(samples))
		e.pending = append(e.pending, samples[:n]...)
		samples = samples[n:]

		if len(e.pending) == full {
			if err := e.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes the header if nothing was written yet and the final partial
// chunk. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return e.err
	}
	e.closed = true
	if e.err != nil {
		return e.err
	}
	if len(e.pending) > 0 {
		return e.flush()
	}
	return e.writeHeader()
}

func (e *Encoder) writeHeader() error {
	if e.started {
		return nil
	}
	e.started = true
	if _, err := e.w.Write(e.header.appendTo(nil)); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *Encoder) flush() error {
	if err := e.writeHeader(); err != nil {
		return err
	}

	bw := bits.NewWriter(nil)
	if err := e.enc.encode(bw, e.pending); err != nil {
		e.err = wrapEncodeError(fmt.Errorf("encoding chunk %d: %w", e.enc.index, err))
		return e.err
	}
	data, err := bw.Bytes()
	if err != nil {
		e.err = wrapEncodeError(err)
		return e.err
	}
	if _, err := e.w.Write(data); err != nil {
		e.err = err
		return err
	}

	e.pending = e.pending[:0]
	return nil
}
