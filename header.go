// header.go
package sea

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/llehouerou/go-sea/internal/quant"
)

// Header flag bits.
const (
	flagVBR      = 1 << 0
	flagStreamed = 1 << 1
	flagMask     = flagVBR | flagStreamed
)

// Header describes a packet. It is self-sufficient: a packet decodes with no
// input other than its own bytes.
type Header struct {
	Version           uint8
	Channels          uint8
	FramesPerChunk    uint16
	SampleRate        uint32
	TotalFrames       uint32 // 0 when Streamed
	ScaleFactorBits   uint8
	ScaleFactorFrames uint8
	PrimaryBits       uint8
	ResidualBits16    uint8 // residual rate in sixteenths of a bit
	VBR               bool
	Streamed          bool // total length unknown when the header was written
	Metadata          string
}

// TotalSamples returns the interleaved sample count across all channels.
func (h *Header) TotalSamples() uint64 {
	return uint64(h.TotalFrames) * uint64(h.Channels)
}

// Settings returns the encoder settings echoed by the header.
func (h *Header) Settings() EncoderSettings {
	return EncoderSettings{
		ScaleFactorBits:   h.ScaleFactorBits,
		ScaleFactorFrames: h.ScaleFactorFrames,
		ResidualBits:      float32(h.ResidualBits16) / 16,
		FramesPerChunk:    h.FramesPerChunk,
		PrimaryBits:       h.PrimaryBits,
		VBR:               h.VBR,
	}
}

// newHeader builds the header for an encode call. settings must be
// normalized and valid.
func newHeader(s EncoderSettings, sampleRate uint32, channels uint8, totalFrames uint32, metadata string) *Header {
	return &Header{
		Version:           Version,
		Channels:          channels,
		FramesPerChunk:    s.FramesPerChunk,
		SampleRate:        sampleRate,
		TotalFrames:       totalFrames,
		ScaleFactorBits:   s.ScaleFactorBits,
		ScaleFactorFrames: s.ScaleFactorFrames,
		PrimaryBits:       s.PrimaryBits,
		ResidualBits16:    uint8(s.residualSixteenths()),
		VBR:               s.VBR,
		Metadata:          metadata,
	}
}

// size returns the encoded header length in bytes.
func (h *Header) size() int {
	return HeaderSize + len(h.Metadata)
}

// appendTo appends the encoded header to b.
func (h *Header) appendTo(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, Magic)
	b = append(b, h.Version, h.Channels)
	b = binary.LittleEndian.AppendUint16(b, h.FramesPerChunk)
	b = binary.LittleEndian.AppendUint32(b, h.SampleRate)
	b = binary.LittleEndian.AppendUint32(b, h.TotalFrames)
	b = append(b, h.ScaleFactorBits, h.ScaleFactorFrames, h.PrimaryBits, h.ResidualBits16)

	var flags byte
	if h.VBR {
		flags |= flagVBR
	}
	if h.Streamed {
		flags |= flagStreamed
	}
	b = append(b, flags)

	b = binary.LittleEndian.AppendUint32(b, uint32(len(h.Metadata)))
	return append(b, h.Metadata...)
}

// parseHeader decodes the header at the start of data and returns it with
// the number of bytes it occupies.
func parseHeader(data []byte) (*Header, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			ErrCorruptPacket, len(data), HeaderSize)
	}
	h, err := readHeader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	return h, h.size(), nil
}

// readHeader decodes a header from r, consuming exactly its bytes.
func readHeader(r io.Reader) (*Header, error) {
	var fixed [HeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptPacket, err)
	}

	if magic := binary.BigEndian.Uint32(fixed[0:4]); magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrCorruptPacket, magic)
	}

	h := &Header{
		Version:           fixed[4],
		Channels:          fixed[5],
		FramesPerChunk:    binary.LittleEndian.Uint16(fixed[6:8]),
		SampleRate:        binary.LittleEndian.Uint32(fixed[8:12]),
		TotalFrames:       binary.LittleEndian.Uint32(fixed[12:16]),
		ScaleFactorBits:   fixed[16],
		ScaleFactorFrames: fixed[17],
		PrimaryBits:       fixed[18],
		ResidualBits16:    fixed[19],
	}
	flags := fixed[20]
	if flags&^flagMask != 0 {
		return nil, fmt.Errorf("%w: unknown flags 0x%02x", ErrCorruptPacket, flags)
	}
	h.VBR = flags&flagVBR != 0
	h.Streamed = flags&flagStreamed != 0

	if err := h.validate(); err != nil {
		return nil, err
	}

	n := binary.LittleEndian.Uint32(fixed[21:25])
	if n > 0 {
		var meta bytes.Buffer
		if _, err := io.CopyN(&meta, r, int64(n)); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: reading %d metadata bytes: %v", ErrCorruptPacket, n, err)
		}
		if !utf8.Valid(meta.Bytes()) {
			return nil, fmt.Errorf("%w: metadata is not valid UTF-8", ErrCorruptPacket)
		}
		h.Metadata = meta.String()
	}

	return h, nil
}

// validate checks the fixed header fields.
func (h *Header) validate() error {
	switch {
	case h.Version != Version:
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptPacket, h.Version)
	case h.Channels == 0:
		return fmt.Errorf("%w: zero channels", ErrCorruptPacket)
	case h.SampleRate == 0:
		return fmt.Errorf("%w: zero sample rate", ErrCorruptPacket)
	case h.FramesPerChunk == 0:
		return fmt.Errorf("%w: zero frames per chunk", ErrCorruptPacket)
	case h.ScaleFactorBits < quant.MinScaleFactorBits || h.ScaleFactorBits > quant.MaxScaleFactorBits:
		return fmt.Errorf("%w: scale factor bits %d", ErrCorruptPacket, h.ScaleFactorBits)
	case h.ScaleFactorFrames == 0 || uint16(h.ScaleFactorFrames) > h.FramesPerChunk:
		return fmt.Errorf("%w: scale factor frames %d", ErrCorruptPacket, h.ScaleFactorFrames)
	case h.PrimaryBits < quant.MinPrimaryBits || h.PrimaryBits > quant.MaxPrimaryBits:
		return fmt.Errorf("%w: primary bits %d", ErrCorruptPacket, h.PrimaryBits)
	case h.ResidualBits16 > quant.MaxResidualBits*16:
		return fmt.Errorf("%w: residual rate %d/16", ErrCorruptPacket, h.ResidualBits16)
	case h.Streamed && h.TotalFrames != 0:
		return fmt.Errorf("%w: streamed packet declares %d frames", ErrCorruptPacket, h.TotalFrames)
	}
	return nil
}
