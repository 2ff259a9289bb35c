// decode.go
package sea

import (
	"fmt"
	"log/slog"

	"github.com/llehouerou/go-sea/internal/alloc"
	"github.com/llehouerou/go-sea/internal/bits"
)

// minSampleBits is the fewest bits any sample occupies in a chunk.
const minSampleBits = 2

// Decode decompresses a packet.
//
// Every field is validated and every read is bounds checked. Malformed or
// truncated input fails with ErrCorruptPacket, and a sample count the payload
// cannot possibly hold is rejected before the output is allocated. Decode
// consumes the whole input: bytes left after the last chunk are an error.
//
// Only WithLogger affects decoding.
func Decode(data []byte, opts ...Option) (*Audio, error) {
	o := newOptions(opts)
	a, err := decode(data, o)
	if err != nil {
		return nil, wrapDecodeError(err)
	}
	return a, nil
}

// ParseHeader decodes only the packet header.
func ParseHeader(data []byte) (*Header, error) {
	h, _, err := parseHeader(data)
	if err != nil {
		return nil, wrapDecodeError(err)
	}
	return h, nil
}

func decode(data []byte, o options) (*Audio, error) {
	h, n, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	r := bits.NewReader(data[n:])
	dec := newChunkDecoder(newLayout(h))

	var samples []int16
	if h.Streamed {
		samples, err = decodeStreamed(dec, r, o.limit)
	} else {
		samples, err = decodeCounted(dec, r, h, o.limit)
	}
	if err != nil {
		return nil, err
	}

	if left := r.Remaining(); left != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after the last chunk", ErrCorruptPacket, left/8)
	}

	o.logger.Debug("packet decoded",
		slog.Int("samples", len(samples)),
		slog.Int("channels", int(h.Channels)),
		slog.Uint64("sample_rate", uint64(h.SampleRate)),
		slog.Bool("vbr", h.VBR),
		slog.Bool("streamed", h.Streamed),
	)

	return &Audio{
		Samples:    samples,
		SampleRate: h.SampleRate,
		Channels:   uint32(h.Channels),
		Metadata:   h.Metadata,
	}, nil
}

// decodeCounted decodes a packet whose header declares its frame count.
// Every chunk but the last holds a full chunk of frames.
func decodeCounted(dec *chunkDecoder, r *bits.Reader, h *Header, limit uint64) ([]int16, error) {
	total := h.TotalSamples()
	if total*minSampleBits > r.Remaining() {
		return nil, fmt.Errorf("%w: %d samples cannot fit in %d payload bytes",
			ErrCorruptPacket, total, r.Remaining()/8)
	}
	if err := alloc.CheckSamples(total, limit); err != nil {
		return nil, err
	}

	samples, err := alloc.Samples(total)
	if err != nil {
		return nil, err
	}

	ch := dec.channels
	step := dec.chunkSamples()
	for off := 0; off < len(samples); off += step {
		end := min(off+step, len(samples))
		if _, err := dec.decode(r, samples[off:end], (end-off)/ch); err != nil {
			return nil, err
		}
	}
	return samples, nil
}

// decodeStreamed decodes chunks until the input is exhausted. Only the last
// chunk may be shorter than a full chunk. The output grows chunk by chunk up
// to limit samples.
func decodeStreamed(dec *chunkDecoder, r *bits.Reader, limit uint64) ([]int16, error) {
	scratch := make([]int16, dec.chunkSamples())
	var samples []int16

	for chunk := 0; r.Remaining() > 0; chunk++ {
		frames, err := dec.decode(r, scratch, 0)
		if err != nil {
			return nil, err
		}
		if frames < dec.chunkFrames && r.Remaining() > 0 {
			return nil, fmt.Errorf("%w: short chunk %d is not the last", ErrCorruptPacket, chunk)
		}
		n := frames * dec.channels
		if err := alloc.CheckSamples(uint64(len(samples)+n), limit); err != nil {
			return nil, err
		}
		samples = append(samples, scratch[:n]...)
	}
	return samples, nil
}
