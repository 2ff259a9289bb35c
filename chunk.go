// chunk.go
package sea

import (
	"fmt"
	"log/slog"

	"github.com/llehouerou/go-sea/internal/bits"
	"github.com/llehouerou/go-sea/internal/output"
	"github.com/llehouerou/go-sea/internal/quant"
	"github.com/llehouerou/go-sea/internal/vbr"
)

// chunkFramesBits is the width of the frame count that opens every chunk.
const chunkFramesBits = 16

// bitReader is implemented by the in-memory and the streaming bit readers.
type bitReader interface {
	ReadBits(n uint) (uint32, error)
	Align() uint
}

// layout holds the header fields that drive chunk coding.
type layout struct {
	channels    int
	chunkFrames int
	groupFrames int
	sfBits      uint8
	primary     uint8
	residual    uint32 // sixteenths of a bit per sample
	vbr         bool
}

func newLayout(h *Header) layout {
	return layout{
		channels:    int(h.Channels),
		chunkFrames: int(h.FramesPerChunk),
		groupFrames: int(h.ScaleFactorFrames),
		sfBits:      h.ScaleFactorBits,
		primary:     h.PrimaryBits,
		residual:    uint32(h.ResidualBits16),
		vbr:         h.VBR,
	}
}

// chunkSamples returns the interleaved sample count of a full chunk.
func (l layout) chunkSamples() int {
	return l.chunkFrames * l.channels
}

// groups returns the number of scale factor groups per channel for frames.
func (l layout) groups(frames int) int {
	return (frames + l.groupFrames - 1) / l.groupFrames
}

// tableSet builds step tables on first use. It lives for one encode or
// decode call only.
type tableSet struct {
	sfBits uint8
	tables [quant.MaxPrimaryBits + 1]*quant.Table
}

func (t *tableSet) get(primary uint8) (*quant.Table, error) {
	if int(primary) >= len(t.tables) {
		return nil, fmt.Errorf("%w: primary width %d", quant.ErrWidth, primary)
	}
	if tt := t.tables[primary]; tt != nil {
		return tt, nil
	}
	tt, err := quant.NewTable(t.sfBits, primary)
	if err != nil {
		return nil, err
	}
	t.tables[primary] = tt
	return tt, nil
}

// fieldWriter writes bit fields and keeps the first error.
type fieldWriter struct {
	w   *bits.Writer
	err error
}

func (f *fieldWriter) put(v uint32, n uint) {
	if f.err == nil {
		f.err = f.w.WriteBits(v, n)
	}
}

// chunkEncoder encodes chunks for one encode call or one streaming Encoder.
type chunkEncoder struct {
	layout
	tables tableSet
	ctrl   *vbr.Controller
	sched  *quant.Schedule
	logger *slog.Logger
	index  int

	// Scratch space sized for a full chunk.
	group   []int32
	levels  []int32
	factors []uint32
	energy  []uint64
	widths  []uint8
}

func newChunkEncoder(l layout, o options) *chunkEncoder {
	e := &chunkEncoder{
		layout: l,
		tables: tableSet{sfBits: l.sfBits},
		logger: o.logger,
	}
	if l.vbr {
		e.ctrl = vbr.NewController(o.policy, l.primary, l.residual, uint8(l.groupFrames))
	} else {
		e.sched = quant.NewSchedule(l.residual)
	}

	n := l.groups(l.chunkFrames) * l.channels
	e.group = make([]int32, 0, l.groupFrames)
	e.levels = make([]int32, l.chunkSamples())
	e.factors = make([]uint32, n)
	e.energy = make([]uint64, n)
	e.widths = make([]uint8, n)
	return e
}

// encode writes one chunk of interleaved samples to w. samples holds between
// one frame and a full chunk.
func (e *chunkEncoder) encode(w *bits.Writer, samples []int16) error {
	ch := e.channels
	frames := len(samples) / ch
	groups := e.groups(frames)
	n := groups * ch

	primary := e.primary
	if e.ctrl != nil {
		primary = e.ctrl.PrimaryBits(samples)
	}
	table, err := e.tables.get(primary)
	if err != nil {
		return err
	}

	// Pass 1: scale factors, primary codes and error energy per group.
	for g := 0; g < groups; g++ {
		start, end := e.groupSpan(g, frames)
		for c := 0; c < ch; c++ {
			e.group = e.group[:0]
			for f := start; f < end; f++ {
				e.group = append(e.group, int32(samples[f*ch+c]))
			}

			sf := table.ScaleFactor(quant.Peak(e.group))
			step := table.Step(sf)

			var energy uint64
			for i, x := range e.group {
				q := table.Quantize(x, step)
				r := int64(x - q*step)
				energy += uint64(r * r)
				e.levels[(start+i)*ch+c] = q
			}

			e.factors[g*ch+c] = sf
			e.energy[g*ch+c] = energy
		}
	}

	// Residual widths, group-major and channel-minor.
	var base uint8
	widths := e.widths[:n]
	if e.ctrl != nil {
		base, widths = e.ctrl.Allocate(e.energy[:n])
	} else {
		e.sched.Plan(n)
		for i := range widths {
			widths[i] = e.sched.Width(i)
		}
	}

	// Pass 2: emit the chunk.
	fw := fieldWriter{w: w}
	fw.put(uint32(frames), chunkFramesBits)
	if e.ctrl != nil {
		fw.put(uint32(primary), vbr.PrimaryFieldBits)
		fw.put(uint32(base), vbr.BaseFieldBits)
	}

	for g := 0; g < groups; g++ {
		start, end := e.groupSpan(g, frames)
		for c := 0; c < ch; c++ {
			i := g*ch + c
			sf := e.factors[i]
			step := table.Step(sf)
			width := widths[i]

			fw.put(sf, uint(e.sfBits))
			if e.ctrl != nil {
				code, err := vbr.Code(width, base)
				if err != nil {
					return err
				}
				fw.put(code, vbr.CodeFieldBits)
			}

			res := quant.NewResidual(step, width)
			for f := start; f < end; f++ {
				q := e.levels[f*ch+c]
				fw.put(table.Code(q), uint(primary))
				if width > 0 {
					fw.put(res.Encode(int32(samples[f*ch+c])-q*step), uint(width))
				}
			}
		}
	}
	if fw.err != nil {
		return fw.err
	}
	if _, err := w.Align(); err != nil {
		return err
	}

	e.logger.Debug("chunk encoded",
		slog.Int("chunk", e.index),
		slog.Int("frames", frames),
		slog.Int("groups", n),
		slog.Int("primary_bits", int(primary)),
		slog.Int("residual_base", int(base)),
	)
	e.index++
	return nil
}

// groupSpan returns the frame range [start, end) of group g.
func (l layout) groupSpan(g, frames int) (int, int) {
	start := g * l.groupFrames
	end := start + l.groupFrames
	if end > frames {
		end = frames
	}
	return start, end
}

// chunkDecoder decodes chunks for one decode call or one streaming Decoder.
type chunkDecoder struct {
	layout
	tables tableSet
	sched  *quant.Schedule
}

func newChunkDecoder(l layout) *chunkDecoder {
	return &chunkDecoder{
		layout: l,
		tables: tableSet{sfBits: l.sfBits},
		sched:  quant.NewSchedule(l.residual),
	}
}

// decode reads one chunk from r into dst and returns its frame count.
//
// want is the exact frame count the chunk must carry, or 0 to accept any
// count up to the chunk size. dst must hold the decoded frames.
func (d *chunkDecoder) decode(r bitReader, dst []int16, want int) (int, error) {
	v, err := r.ReadBits(chunkFramesBits)
	if err != nil {
		return 0, err
	}
	frames := int(v)
	if frames == 0 || frames > d.chunkFrames {
		return 0, fmt.Errorf("%w: chunk of %d frames", ErrCorruptPacket, frames)
	}
	if want > 0 && frames != want {
		return 0, fmt.Errorf("%w: chunk of %d frames, expected %d", ErrCorruptPacket, frames, want)
	}
	if len(dst) < frames*d.channels {
		return 0, fmt.Errorf("%w: chunk of %d frames overflows output", ErrCorruptPacket, frames)
	}

	primary := d.primary
	var base uint8
	if d.vbr {
		p, err := r.ReadBits(vbr.PrimaryFieldBits)
		if err != nil {
			return 0, err
		}
		if err := vbr.CheckPrimary(p); err != nil {
			return 0, err
		}
		b, err := r.ReadBits(vbr.BaseFieldBits)
		if err != nil {
			return 0, err
		}
		if err := vbr.CheckBase(b); err != nil {
			return 0, err
		}
		primary, base = uint8(p), uint8(b)
	}

	table, err := d.tables.get(primary)
	if err != nil {
		return 0, err
	}

	ch := d.channels
	groups := d.groups(frames)
	if !d.vbr {
		d.sched.Plan(groups * ch)
	}
	for g := 0; g < groups; g++ {
		start, end := d.groupSpan(g, frames)
		for c := 0; c < ch; c++ {
			sf, err := r.ReadBits(uint(d.sfBits))
			if err != nil {
				return 0, err
			}
			step := table.Step(sf)

			var width uint8
			if d.vbr {
				code, err := r.ReadBits(vbr.CodeFieldBits)
				if err != nil {
					return 0, err
				}
				if width, err = vbr.Width(code, base); err != nil {
					return 0, err
				}
			} else {
				width = d.sched.Width(g*ch + c)
			}

			res := quant.NewResidual(step, width)
			for f := start; f < end; f++ {
				code, err := r.ReadBits(uint(primary))
				if err != nil {
					return 0, err
				}
				x := table.Value(code) * step
				if width > 0 {
					k, err := r.ReadBits(uint(width))
					if err != nil {
						return 0, err
					}
					x += res.Decode(k)
				}
				dst[f*ch+c] = output.Clamp16(x)
			}
		}
	}

	r.Align()
	return frames, nil
}
