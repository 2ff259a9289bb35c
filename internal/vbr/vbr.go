// Package vbr implements the variable bit rate controller.
//
// The controller runs on the encoder only. Every decision it makes is written
// to the stream as a chunk primary width, a chunk residual base and a 2-bit
// code per group, so the decoder never needs to know which Policy produced
// them.
package vbr

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/llehouerou/go-sea/internal/quant"
)

// Field widths of the VBR side information.
const (
	PrimaryFieldBits = 4 // chunk primary width
	BaseFieldBits    = 4 // chunk residual base
	CodeFieldBits    = 2 // per-group residual code
)

// maxLevel caps the activity level handed to the default policy.
const maxLevel = 15

// ErrRange indicates a VBR field that decodes to an unsupported width.
var ErrRange = errors.New("vbr: width out of range")

// Policy maps the activity of a chunk to its primary sample width.
// Implementations should be monotonic in activity. The result is clamped to
// the supported primary widths by the Controller.
type Policy interface {
	PrimaryBits(activity uint32, nominal uint8) uint8
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(activity uint32, nominal uint8) uint8

// PrimaryBits calls f(activity, nominal).
func (f PolicyFunc) PrimaryBits(activity uint32, nominal uint8) uint8 {
	return f(activity, nominal)
}

// AmplitudePolicy is the default policy. Quiet chunks get one bit less than
// the nominal width and each fourth power of two of mean amplitude adds a bit.
type AmplitudePolicy struct{}

// PrimaryBits implements Policy.
func (AmplitudePolicy) PrimaryBits(activity uint32, nominal uint8) uint8 {
	level := bits.Len32(activity)
	if level > maxLevel {
		level = maxLevel
	}
	w := int(nominal) - 1 + level/4
	return uint8(clamp(w, quant.MinPrimaryBits, quant.MaxPrimaryBits))
}

// Activity returns the mean absolute amplitude of samples.
func Activity(samples []int16) uint32 {
	if len(samples) == 0 {
		return 0
	}
	var sum uint64
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(samples)))
}

// Controller makes the per-chunk VBR decisions for one encode call.
type Controller struct {
	policy  Policy
	nominal uint8
	target  uint32 // average residual width in sixteenths of a bit
}

// NewController returns a controller.
//
// nominal is the configured primary width, residual the configured residual
// rate in sixteenths of a bit and groupFrames the scale factor group length.
// The 2-bit code written per group is paid for out of the residual rate.
// A nil policy selects AmplitudePolicy.
func NewController(policy Policy, nominal uint8, residual uint32, groupFrames uint8) *Controller {
	if policy == nil {
		policy = AmplitudePolicy{}
	}
	overhead := uint32(0)
	if groupFrames > 0 {
		overhead = CodeFieldBits * 16 / uint32(groupFrames)
	}
	target := uint32(0)
	if residual > overhead {
		target = residual - overhead
	}
	if target > quant.MaxResidualBits*16 {
		target = quant.MaxResidualBits * 16
	}
	return &Controller{
		policy:  policy,
		nominal: nominal,
		target:  target,
	}
}

// PrimaryBits returns the primary width for a chunk of interleaved samples.
func (c *Controller) PrimaryBits(chunk []int16) uint8 {
	w := c.policy.PrimaryBits(Activity(chunk), c.nominal)
	return uint8(clamp(int(w), quant.MinPrimaryBits, quant.MaxPrimaryBits))
}

// Allocate distributes the residual budget of a chunk over its groups.
//
// energy holds the squared primary quantization error of each group. The
// budget is round(target*len(energy)) bits. Groups are ranked by error and
// the quarter with the most error runs one bit ahead of the rest while the
// quarter with the least runs one bit behind. Bits are handed out in passes:
// in pass p every group whose lead puts its next bit at p takes it, worst
// group first, until the budget is spent. A group's width therefore never
// shrinks when the budget grows. The returned widths are in the order of
// energy and lie in [base-1, base+2].
func (c *Controller) Allocate(energy []uint64) (base uint8, widths []uint8) {
	n := len(energy)
	if n == 0 {
		return 0, nil
	}

	budget := (int(c.target)*n + 8) / 16

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return energy[order[a]] < energy[order[b]]
	})

	q := n / 4
	lead := func(rank int) int {
		switch {
		case rank < q:
			return -1
		case rank >= n-q:
			return 1
		}
		return 0
	}

	widths = make([]uint8, n)
	for p := 0; budget > 0 && p <= quant.MaxResidualBits+1; p++ {
		for rank := n - 1; rank >= 0 && budget > 0; rank-- {
			k := p + lead(rank)
			if k < 1 || k > quant.MaxResidualBits {
				continue
			}
			widths[order[rank]]++
			budget--
		}
	}

	low := widths[0]
	for _, w := range widths {
		low = min(low, w)
	}
	return min(low+1, quant.MaxResidualBits), widths
}

// Code returns the 2-bit field value that encodes width relative to base.
func Code(width, base uint8) (uint32, error) {
	d := int(width) - int(base) + 1
	if d < 0 || d > 3 {
		return 0, fmt.Errorf("%w: width %d with base %d", ErrRange, width, base)
	}
	return uint32(d), nil
}

// Width decodes a group residual width from its 2-bit code and the chunk base.
func Width(code uint32, base uint8) (uint8, error) {
	w := int(base) + int(code) - 1
	if code > 3 || w < 0 || w > quant.MaxResidualBits {
		return 0, fmt.Errorf("%w: code %d with base %d", ErrRange, code, base)
	}
	return uint8(w), nil
}

// CheckBase validates a chunk residual base read from the stream.
func CheckBase(base uint32) error {
	if base > quant.MaxResidualBits {
		return fmt.Errorf("%w: residual base %d", ErrRange, base)
	}
	return nil
}

// CheckPrimary validates a chunk primary width read from the stream.
func CheckPrimary(width uint32) error {
	if width < quant.MinPrimaryBits || width > quant.MaxPrimaryBits {
		return fmt.Errorf("%w: primary width %d", ErrRange, width)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
