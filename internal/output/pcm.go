// Package output converts between the sample layouts the codec and its
// inputs use and 16-bit interleaved PCM.
package output

import "math"

// Clamp16 saturates v to the int16 range.
func Clamp16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Interleave converts planar samples of the given bit depth to interleaved
// 16-bit PCM appended to dst. Deeper samples are truncated to their top 16
// bits and shallower ones are shifted up. All planes must have equal length.
func Interleave(dst []int16, planes [][]int32, bitsPerSample uint8) []int16 {
	if len(planes) == 0 {
		return dst
	}
	frames := len(planes[0])

	for i := 0; i < frames; i++ {
		for _, plane := range planes {
			dst = append(dst, Clamp16(scaleTo16(plane[i], bitsPerSample)))
		}
	}
	return dst
}

func scaleTo16(v int32, bitsPerSample uint8) int32 {
	switch {
	case bitsPerSample > 16:
		return v >> (bitsPerSample - 16)
	case bitsPerSample < 16 && bitsPerSample > 0:
		return v << (16 - bitsPerSample)
	default:
		return v
	}
}
