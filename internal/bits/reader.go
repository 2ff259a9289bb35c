// Package bits provides MSB-first bit reading and writing for the SEA bitstream.
package bits

import "errors"

// ErrUnderflow is returned when a read asks for more bits than remain.
var ErrUnderflow = errors.New("bits: read past end of data")

// ErrWidth is returned for field widths above 32 bits.
var ErrWidth = errors.New("bits: field width exceeds 32 bits")

// Reader reads bits from an in-memory byte buffer.
//
// It uses a two-buffer approach for efficient bit reading:
// - bufa holds the current 32 bits being read from
// - bufb pre-loads the next 32 bits for look-ahead
//
// Every read is checked against the buffer length; bytes past the end are
// never touched and a short read fails with ErrUnderflow.
type Reader struct {
	buffer   []byte // Original buffer
	bufa     uint32 // Current 32-bit buffer (high bits)
	bufb     uint32 // Next 32-bit buffer (look-ahead)
	bitsLeft uint32 // Bits remaining in bufa (0-32)
	pos      int    // Current byte position in buffer (next to load)
	consumed uint64 // Bits handed out so far
	total    uint64 // Bits available in buffer
}

// NewReader creates a Reader from a byte slice.
//
// The reader pre-loads the first 64 bits (or as many as available) into
// two 32-bit buffers. An empty buffer is valid; any read from it underflows.
func NewReader(data []byte) *Reader {
	r := &Reader{
		buffer: data,
		total:  uint64(len(data)) * 8,
	}

	r.bufa = r.loadWord(0)
	r.bufb = r.loadWord(4)
	r.pos = 8
	r.bitsLeft = 32

	return r
}

// loadWord loads up to 4 bytes from buffer position as big-endian uint32.
// Handles partial reads at end of buffer by padding with zeros on the right.
func (r *Reader) loadWord(offset int) uint32 {
	if offset >= len(r.buffer) {
		return 0
	}

	remaining := len(r.buffer) - offset
	if remaining >= 4 {
		return uint32(r.buffer[offset])<<24 |
			uint32(r.buffer[offset+1])<<16 |
			uint32(r.buffer[offset+2])<<8 |
			uint32(r.buffer[offset+3])
	}

	// Partial read - pad with zeros on the right
	var result uint32
	switch remaining {
	case 3:
		result = uint32(r.buffer[offset])<<24 |
			uint32(r.buffer[offset+1])<<16 |
			uint32(r.buffer[offset+2])<<8
	case 2:
		result = uint32(r.buffer[offset])<<24 |
			uint32(r.buffer[offset+1])<<16
	case 1:
		result = uint32(r.buffer[offset]) << 24
	}
	return result
}

// showBits returns the next n bits without consuming them. n must be 1-32.
func (r *Reader) showBits(n uint) uint32 {
	if n <= uint(r.bitsLeft) {
		// All bits available in bufa
		return (r.bufa << (32 - r.bitsLeft)) >> (32 - n)
	}

	// Need bits from both bufa and bufb
	bitsFromBufb := n - uint(r.bitsLeft)
	return ((r.bufa & ((1 << r.bitsLeft) - 1)) << bitsFromBufb) |
		(r.bufb >> (32 - bitsFromBufb))
}

// flushBits discards n bits from the stream. n must be 0-32.
func (r *Reader) flushBits(n uint) {
	r.consumed += uint64(n)

	if n < uint(r.bitsLeft) {
		r.bitsLeft -= uint32(n)
		return
	}

	// Move bufb to bufa and load the next word into bufb
	r.bufa = r.bufb
	r.bufb = r.loadWord(r.pos)
	r.pos += 4
	r.bitsLeft += 32 - uint32(n)
}

// ReadBits reads and returns the next n bits (0-32) as an unsigned integer.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 32 {
		return 0, ErrWidth
	}
	if r.consumed+uint64(n) > r.total {
		return 0, ErrUnderflow
	}

	v := r.showBits(n)
	r.flushBits(n)
	return v, nil
}

// Align skips to the next byte boundary and returns the number of bits skipped.
func (r *Reader) Align() uint {
	rem := uint(r.consumed % 8)
	if rem == 0 {
		return 0
	}
	r.flushBits(8 - rem)
	return 8 - rem
}

// BitsRead returns the number of bits consumed so far.
func (r *Reader) BitsRead() uint64 {
	return r.consumed
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() uint64 {
	return r.total - r.consumed
}
