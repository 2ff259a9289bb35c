// decoder.go
package sea

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/llehouerou/go-sea/internal/alloc"
	"github.com/llehouerou/go-sea/internal/bits"
)

// Decoder reads a packet from an io.Reader one chunk at a time.
//
// It accepts both packets written by Encode and streamed packets written
// by an Encoder. Decoder instances are NOT safe for concurrent use.
type Decoder struct {
	header *Header
	in     *bits.StreamReader
	dec    *chunkDecoder
	buf    []int16
	logger *slog.Logger
	limit  uint64

	frames uint64 // decoded so far
	short  bool   // the previous chunk was shorter than a full chunk
	done   bool
	err    error
}

// NewDecoder reads and validates the header from r.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	o := newOptions(opts)

	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, wrapDecodeError(err)
	}

	l := newLayout(h)
	return &Decoder{
		header: h,
		in:     bits.NewStreamReader(br),
		dec:    newChunkDecoder(l),
		buf:    make([]int16, l.chunkSamples()),
		logger: o.logger,
		limit:  o.limit,
	}, nil
}

// Header returns the parsed packet header.
func (d *Decoder) Header() *Header {
	return d.header
}

// DecodeChunk returns the interleaved samples of the next chunk. The slice
// is owned by the caller. After the last chunk it returns io.EOF. A decode
// error is returned again by every later call.
func (d *Decoder) DecodeChunk() ([]int16, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.done {
		return nil, io.EOF
	}
	out, err := d.decodeChunk()
	if err != nil && err != io.EOF {
		d.err = wrapDecodeError(err)
		return nil, d.err
	}
	return out, err
}

func (d *Decoder) decodeChunk() ([]int16, error) {
	want := 0
	if d.header.Streamed {
		eof, err := d.in.AtEOF()
		if err != nil {
			return nil, err
		}
		if eof {
			d.done = true
			return nil, io.EOF
		}
		if d.short {
			return nil, fmt.Errorf("%w: data after a short chunk", ErrCorruptPacket)
		}
	} else {
		left := uint64(d.header.TotalFrames) - d.frames
		if left == 0 {
			d.done = true
			return nil, io.EOF
		}
		want = int(min(left, uint64(d.dec.chunkFrames)))
	}

	frames, err := d.dec.decode(d.in, d.buf, want)
	if err != nil {
		return nil, err
	}
	d.frames += uint64(frames)
	d.short = frames < d.dec.chunkFrames

	d.logger.Debug("chunk decoded",
		slog.Int("frames", frames),
		slog.Uint64("total_frames", d.frames),
	)

	out := make([]int16, frames*d.dec.channels)
	copy(out, d.buf)
	return out, nil
}

// DecodeAll decodes the remaining chunks into one Audio. It fails with
// ErrAllocationFailure when the samples would exceed the allocation limit.
func (d *Decoder) DecodeAll() (*Audio, error) {
	a := &Audio{
		SampleRate: d.header.SampleRate,
		Channels:   uint32(d.header.Channels),
		Metadata:   d.header.Metadata,
	}
	for {
		chunk, err := d.DecodeChunk()
		if err == io.EOF {
			return a, nil
		}
		if err != nil {
			return nil, err
		}
		if err := alloc.CheckSamples(uint64(len(a.Samples)+len(chunk)), d.limit); err != nil {
			d.err = wrapDecodeError(err)
			return nil, d.err
		}
		a.Samples = append(a.Samples, chunk...)
	}
}
