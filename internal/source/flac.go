package source

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/llehouerou/go-sea/internal/output"
)

// FLAC reads a FLAC stream frame by frame.
type FLAC struct {
	closer     io.Closer
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   uint8
	pending    []int16
	planes     [][]int32
}

// NewFLAC parses the FLAC stream header from rc. Close closes rc.
func NewFLAC(rc io.ReadCloser) (*FLAC, error) {
	stream, err := flac.New(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	return &FLAC{
		closer:     rc,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   info.BitsPerSample,
		planes:     make([][]int32, info.NChannels),
	}, nil
}

// Read implements Source.
func (s *FLAC) Read(samples []int16) (int, error) {
	want := len(samples) - len(samples)%s.channels
	n := 0
	for n < want {
		if len(s.pending) == 0 {
			frame, err := s.stream.ParseNext()
			if err == io.EOF {
				if n == 0 {
					return 0, io.EOF
				}
				return n, nil
			}
			if err != nil {
				return n, fmt.Errorf("failed to decode FLAC frame: %w", err)
			}

			for ch := range s.planes {
				s.planes[ch] = frame.Subframes[ch].Samples[:frame.BlockSize]
			}
			s.pending = output.Interleave(s.pending[:0], s.planes, s.bitDepth)
		}

		c := copy(samples[n:want], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

// SampleRate implements Source.
func (s *FLAC) SampleRate() int { return s.sampleRate }

// Channels implements Source.
func (s *FLAC) Channels() int { return s.channels }

// Close implements Source.
func (s *FLAC) Close() error {
	return s.closer.Close()
}
