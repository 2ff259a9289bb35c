// Package quant implements scale-factor quantization of PCM sample groups.
//
// A scale factor e selects a quantization step from a table built for a
// given scale-factor width and primary sample width. Samples of a group are
// stored as offset-binary integers of the primary width relative to that step.
package quant

import (
	"errors"
	"fmt"
)

// Width limits.
const (
	MinScaleFactorBits = 1
	MaxScaleFactorBits = 8
	MinPrimaryBits     = 2
	MaxPrimaryBits     = 8
	MaxResidualBits    = 8
)

// fullScale is the magnitude the largest step must cover (|int16 min|).
const fullScale = 32768

// ErrWidth indicates a scale-factor or primary width outside the supported range.
var ErrWidth = errors.New("quant: width out of range")

// Table maps scale factors to quantization steps for one
// (scale-factor width, primary width) pair.
type Table struct {
	steps       []int32
	qmax        int32
	primaryBits uint8
}

// NewTable builds the step table.
//
// With E = 2^scaleFactorBits - 1 and qmax = 2^(primaryBits-1) - 1, the steps
// follow a cubic law from 1 at e = 0 to maxStep at e = E, where maxStep is the
// smallest step for which qmax + 1/2 steps reach full scale. Only integer
// arithmetic is used so tables are identical on every platform.
func NewTable(scaleFactorBits, primaryBits uint8) (*Table, error) {
	if scaleFactorBits < MinScaleFactorBits || scaleFactorBits > MaxScaleFactorBits {
		return nil, fmt.Errorf("%w: scale factor bits %d", ErrWidth, scaleFactorBits)
	}
	if primaryBits < MinPrimaryBits || primaryBits > MaxPrimaryBits {
		return nil, fmt.Errorf("%w: primary bits %d", ErrWidth, primaryBits)
	}

	qmax := int32(1)<<(primaryBits-1) - 1
	maxStep := ceilDiv(2*fullScale, int64(2*qmax+1))

	e := int64(1)<<scaleFactorBits - 1
	e3 := e * e * e

	steps := make([]int32, e+1)
	for i := int64(0); i <= e; i++ {
		s := ceilDiv(maxStep*i*i*i, e3)
		if s < 1 {
			s = 1
		}
		steps[i] = int32(s)
	}

	return &Table{
		steps:       steps,
		qmax:        qmax,
		primaryBits: primaryBits,
	}, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// Len returns the number of scale factors in the table.
func (t *Table) Len() int {
	return len(t.steps)
}

// Step returns the quantization step for scale factor e.
// Values above the table saturate at the largest step.
func (t *Table) Step(e uint32) int32 {
	if int(e) >= len(t.steps) {
		return t.steps[len(t.steps)-1]
	}
	return t.steps[e]
}

// PrimaryBits returns the primary sample width the table was built for.
func (t *Table) PrimaryBits() uint8 {
	return t.primaryBits
}

// QMax returns the largest quantized magnitude.
func (t *Table) QMax() int32 {
	return t.qmax
}

// ScaleFactor returns the smallest scale factor whose step represents peak
// without clipping: 2*peak <= (2*qmax+1)*step. It saturates at the top entry.
func (t *Table) ScaleFactor(peak int32) uint32 {
	span := int64(2*t.qmax + 1)
	target := 2 * int64(peak)
	for e, s := range t.steps {
		if target <= span*int64(s) {
			return uint32(e)
		}
	}
	return uint32(len(t.steps) - 1)
}

// Quantize returns round(x/step), rounding halves away from zero, clamped
// to [-qmax, qmax].
func (t *Table) Quantize(x, step int32) int32 {
	half := step / 2
	var q int32
	if x >= 0 {
		q = (x + half) / step
	} else {
		q = -((-x + half) / step)
	}
	if q > t.qmax {
		return t.qmax
	}
	if q < -t.qmax {
		return -t.qmax
	}
	return q
}

// Code converts a quantized value to its offset-binary field value.
func (t *Table) Code(q int32) uint32 {
	return uint32(q + t.qmax + 1)
}

// Value converts an offset-binary field value back to a quantized value.
func (t *Table) Value(code uint32) int32 {
	return int32(code) - t.qmax - 1
}

// Peak returns the largest absolute value in samples.
func Peak(samples []int32) int32 {
	var peak int32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
