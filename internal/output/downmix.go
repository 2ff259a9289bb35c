// internal/output/downmix.go
package output

// Remix converts interleaved samples from one channel count to another.
//
// Equal counts copy. Mono input is duplicated to every output channel.
// Any input mixed to mono is averaged with rounding toward zero. Other
// conversions keep the first min(from, to) channels and fill the rest with
// the average of the input frame.
func Remix(samples []int16, from, to int) []int16 {
	if from <= 0 || to <= 0 {
		return nil
	}
	frames := len(samples) / from
	out := make([]int16, 0, frames*to)

	for f := 0; f < frames; f++ {
		frame := samples[f*from : (f+1)*from]

		switch {
		case from == to:
			out = append(out, frame...)
		case from == 1:
			for c := 0; c < to; c++ {
				out = append(out, frame[0])
			}
		default:
			avg := average(frame)
			for c := 0; c < to; c++ {
				if c < from && to > 1 {
					out = append(out, frame[c])
				} else {
					out = append(out, avg)
				}
			}
		}
	}
	return out
}

func average(frame []int16) int16 {
	var sum int32
	for _, s := range frame {
		sum += int32(s)
	}
	return int16(sum / int32(len(frame)))
}
