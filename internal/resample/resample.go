// Package resample converts interleaved 16-bit PCM between sample rates
// using linear interpolation.
//
// A Resampler keeps the last input frame and its fractional read position
// between calls, so a stream may be fed in blocks of any size:
//
//	r, _ := resample.New(44100, 48000, 2)
//	out := r.Resample(nil, block1)
//	out = r.Resample(out, block2)
//	out = r.Flush(out)
package resample

import (
	"fmt"
	"math"
)

// Resampler performs linear interpolation to convert between sample rates.
// It is not safe for concurrent use.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	last       []int16 // one sample per channel
	primed     bool
}

// New creates a resampler for interleaved input with the given channel count.
func New(inputRate, outputRate, channels int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("resample: invalid rates %d -> %d", inputRate, outputRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("resample: invalid channel count %d", channels)
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]int16, channels),
	}, nil
}

// Resample appends the output frames that input makes available to dst and
// returns the extended slice. A trailing partial frame in input is ignored.
// The frame at the final read position is held back until more input or
// Flush arrives.
func (r *Resampler) Resample(dst, input []int16) []int16 {
	frames := len(input) / r.channels
	if frames == 0 {
		return dst
	}

	offset := 0
	if r.primed {
		offset = 1
	}
	n := frames + offset

	for r.position < float64(n-1) {
		idx := int(r.position)
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := r.at(input, idx-offset, ch)
			s2 := r.at(input, idx+1-offset, ch)
			dst = append(dst, interpolate(s1, s2, frac))
		}
		r.position += r.ratio
	}

	// Keep the last frame so the next block can interpolate across the seam.
	copy(r.last, input[(frames-1)*r.channels:frames*r.channels])
	r.position -= float64(n - 1)
	r.primed = true
	return dst
}

// Flush appends the frames that fall between the held frame and the end of
// the input, then resets the resampler.
func (r *Resampler) Flush(dst []int16) []int16 {
	if r.primed {
		for r.position < 1 {
			dst = append(dst, r.last...)
			r.position += r.ratio
		}
	}
	r.Reset()
	return dst
}

// Reset discards the held frame and the read position.
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.last {
		r.last[i] = 0
	}
}

// OutputFrames estimates how many frames inputFrames produce in total.
func (r *Resampler) OutputFrames(inputFrames int) int {
	return int(math.Ceil(float64(inputFrames) / r.ratio))
}

func (r *Resampler) at(input []int16, frame, ch int) int16 {
	if frame < 0 {
		return r.last[ch]
	}
	return input[frame*r.channels+ch]
}

func interpolate(s1, s2 int16, frac float64) int16 {
	return int16(math.Round(float64(s1)*(1-frac) + float64(s2)*frac))
}
