// encode.go
package sea

import (
	"fmt"
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/llehouerou/go-sea/internal/alloc"
	"github.com/llehouerou/go-sea/internal/bits"
	"github.com/llehouerou/go-sea/internal/quant"
	"github.com/llehouerou/go-sea/internal/vbr"
)

// Encode compresses interleaved PCM samples into a packet.
//
// len(samples) must be a multiple of channels. A nil settings uses
// DefaultSettings. Encode fails with ErrInvalidArgument before allocating
// anything when an argument is out of range, and with ErrAllocationFailure
// when the output would exceed the buffer limit.
func Encode(samples []int16, sampleRate, channels uint32, settings *EncoderSettings, opts ...Option) (*Packet, error) {
	o := newOptions(opts)

	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}
	s.Normalize()

	if err := checkArgs(sampleRate, channels, s, o.metadata); err != nil {
		return nil, err
	}
	if len(samples)%int(channels) != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			ErrInvalidArgument, len(samples), channels)
	}
	frames := uint64(len(samples) / int(channels))
	if frames > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d frames exceeds the format limit", ErrInvalidArgument, frames)
	}

	h := newHeader(s, sampleRate, uint8(channels), uint32(frames), o.metadata)
	buf, err := alloc.Bytes(maxEncodedSize(h, uint64(len(samples))))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailure, err)
	}

	w := bits.NewWriter(h.appendTo(buf))
	enc := newChunkEncoder(newLayout(h), o)
	step := enc.chunkSamples()
	for off := 0; off < len(samples); off += step {
		end := min(off+step, len(samples))
		if err := enc.encode(w, samples[off:end]); err != nil {
			return nil, wrapEncodeError(fmt.Errorf("encoding chunk %d: %w", off/step, err))
		}
	}

	data, err := w.Bytes()
	if err != nil {
		return nil, wrapEncodeError(err)
	}

	o.logger.Debug("packet encoded",
		slog.Uint64("frames", frames),
		slog.Int("channels", int(channels)),
		slog.Int("chunks", enc.index),
		slog.Int("bytes", len(data)),
		slog.Bool("vbr", s.VBR),
	)
	return &Packet{data: data}, nil
}

// checkArgs validates the arguments shared by Encode and NewEncoder.
func checkArgs(sampleRate, channels uint32, s EncoderSettings, metadata string) error {
	if channels == 0 || channels > MaxChannels {
		return fmt.Errorf("%w: %d channels not in [1, %d]", ErrInvalidArgument, channels, MaxChannels)
	}
	if sampleRate == 0 {
		return fmt.Errorf("%w: zero sample rate", ErrInvalidArgument)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if !utf8.ValidString(metadata) {
		return fmt.Errorf("%w: metadata is not valid UTF-8", ErrInvalidArgument)
	}
	if uint64(len(metadata)) > math.MaxUint32 {
		return fmt.Errorf("%w: metadata of %d bytes", ErrInvalidArgument, len(metadata))
	}
	return nil
}

// maxEncodedSize bounds the packet size for n interleaved samples.
func maxEncodedSize(h *Header, n uint64) uint64 {
	ch := uint64(h.Channels)
	frames := n / ch
	fpc := uint64(h.FramesPerChunk)
	sff := uint64(h.ScaleFactorFrames)

	chunks := (frames + fpc - 1) / fpc
	// Every chunk may end with a partial group.
	groups := (frames/sff + chunks) * ch

	primary := uint64(h.PrimaryBits)
	chunkBits := uint64(chunkFramesBits)
	groupBits := uint64(h.ScaleFactorBits)
	if h.VBR {
		primary = quant.MaxPrimaryBits
		chunkBits += vbr.PrimaryFieldBits + vbr.BaseFieldBits
		groupBits += vbr.CodeFieldBits
	}

	total := n*(primary+quant.MaxResidualBits) + groups*groupBits + chunks*(chunkBits+7)
	return uint64(h.size()) + (total+7)/8
}
