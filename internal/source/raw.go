package source

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Raw reads headerless little-endian signed 16-bit PCM.
type Raw struct {
	closer io.Closer
	r      *bufio.Reader
	format RawFormat
	buf    []byte
}

// NewRaw returns a Source over rc with the given layout. Close closes rc.
func NewRaw(rc io.ReadCloser, format RawFormat) (*Raw, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("raw input needs a sample rate and channel count, got %d Hz, %d channels",
			format.SampleRate, format.Channels)
	}
	return &Raw{
		closer: rc,
		r:      bufio.NewReader(rc),
		format: format,
	}, nil
}

// Read implements Source. A trailing partial frame is dropped.
func (s *Raw) Read(samples []int16) (int, error) {
	frameBytes := 2 * s.format.Channels
	want := (len(samples) / s.format.Channels) * frameBytes
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	n, err := io.ReadFull(s.r, buf)
	n -= n % frameBytes
	for i := 0; i < n/2; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}

	switch {
	case err == io.ErrUnexpectedEOF || (err == io.EOF && n > 0):
		return n / 2, nil
	case err != nil:
		return n / 2, err
	}
	return n / 2, nil
}

// SampleRate implements Source.
func (s *Raw) SampleRate() int { return s.format.SampleRate }

// Channels implements Source.
func (s *Raw) Channels() int { return s.format.Channels }

// Close implements Source.
func (s *Raw) Close() error {
	return s.closer.Close()
}
