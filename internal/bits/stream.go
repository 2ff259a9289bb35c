package bits

import (
	"bufio"
	"errors"
	"io"

	"github.com/icza/bitio"
)

// StreamReader reads MSB-first bit fields from an io.Reader.
//
// End of input in the middle of a field is reported as ErrUnderflow.
// Other read errors are passed through.
type StreamReader struct {
	src      *bufio.Reader
	in       *bitio.Reader
	consumed uint64
}

// NewStreamReader wraps r. A *bufio.Reader is used directly so that bytes
// already consumed from it (such as a file header) stay consumed.
func NewStreamReader(r io.Reader) *StreamReader {
	src, ok := r.(*bufio.Reader)
	if !ok {
		src = bufio.NewReader(r)
	}
	return &StreamReader{
		src: src,
		in:  bitio.NewReader(src),
	}
}

// ReadBits reads and returns the next n bits (0-32).
func (s *StreamReader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 32 {
		return 0, ErrWidth
	}

	v, err := s.in.ReadBits(uint8(n))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrUnderflow
		}
		return 0, err
	}
	s.consumed += uint64(n)
	return uint32(v), nil
}

// Align skips to the next byte boundary and returns the number of bits skipped.
func (s *StreamReader) Align() uint {
	skipped := s.in.Align()
	s.consumed += uint64(skipped)
	return uint(skipped)
}

// BitsRead returns the number of bits consumed so far.
func (s *StreamReader) BitsRead() uint64 {
	return s.consumed
}

// AtEOF reports whether the underlying input is exhausted. It is only
// meaningful on a byte boundary.
func (s *StreamReader) AtEOF() (bool, error) {
	if _, err := s.src.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
