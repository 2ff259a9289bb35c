package source

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// mp3Channels is the channel count go-mp3 always decodes to.
const mp3Channels = 2

// MP3 reads an MP3 stream as 16-bit stereo.
type MP3 struct {
	closer  io.Closer
	decoder *mp3.Decoder
	buf     []byte
}

// NewMP3 reads the first MP3 frame from rc. Close closes rc.
func NewMP3(rc io.ReadCloser) (*MP3, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	return &MP3{
		closer:  rc,
		decoder: decoder,
	}, nil
}

// Read implements Source.
func (s *MP3) Read(samples []int16) (int, error) {
	want := len(samples) - len(samples)%mp3Channels
	if cap(s.buf) < want*2 {
		s.buf = make([]byte, want*2)
	}
	buf := s.buf[:want*2]

	n, err := io.ReadFull(s.decoder, buf)
	n -= n % (2 * mp3Channels)
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
func (s *MP3) SampleRate() int { return s.decoder.SampleRate() }

// Channels implements Source.
func (s *MP3) Channels() int { return mp3Channels }

// Close implements Source.
func (s *MP3) Close() error {
	return s.closer.Close()
}
