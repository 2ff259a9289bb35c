package quant

import "math/bits"

// Schedule spreads a fractional per-group bit rate over the whole-bit groups
// of a chunk.
//
// The rate is in sixteenths of a bit. Every group gets rate/16 bits and the
// round(n*frac/16) groups of highest priority get one more. A group's
// priority is its bit-reversed index, so the extra bits are spread evenly
// over the chunk and a group that holds one at some rate holds it at every
// higher rate.
type Schedule struct {
	rate  uint32
	n     int
	extra int
	rank  []int32
}

// NewSchedule returns a schedule for rate sixteenths of a bit per group.
func NewSchedule(rate uint32) *Schedule {
	if rate > MaxResidualBits*16 {
		rate = MaxResidualBits * 16
	}
	return &Schedule{rate: rate}
}

// Plan prepares the schedule for a chunk of n groups.
func (s *Schedule) Plan(n int) {
	s.extra = (int(s.rate%16)*n + 8) / 16
	if n == s.n || n <= 0 {
		return
	}
	s.n = n
	if cap(s.rank) < n {
		s.rank = make([]int32, n)
	}
	s.rank = s.rank[:n]

	k := bits.Len(uint(n - 1))
	next := int32(0)
	for j := 0; j < 1<<k; j++ {
		g := int(bits.Reverse32(uint32(j)) >> (32 - k))
		if g < n {
			s.rank[g] = next
			next++
		}
	}
}

// Width returns the bit width of group i of the planned chunk.
func (s *Schedule) Width(i int) uint8 {
	w := uint8(s.rate / 16)
	if int(s.rank[i]) < s.extra {
		w++
	}
	return w
}
