package bits

import (
	"bytes"

	"github.com/icza/bitio"
)

// Writer packs MSB-first bit fields into a growing byte buffer.
type Writer struct {
	buf     *bytes.Buffer
	out     *bitio.Writer
	written uint64
}

// NewWriter creates a Writer that appends to prefix. The prefix bytes are kept
// as-is and their capacity is reused for the bitstream.
func NewWriter(prefix []byte) *Writer {
	buf := bytes.NewBuffer(prefix)
	return &Writer{
		buf: buf,
		out: bitio.NewWriter(buf),
	}
}

// WriteBits appends the low n bits (0-32) of value.
func (w *Writer) WriteBits(value uint32, n uint) error {
	if n == 0 {
		return nil
	}
	if n > 32 {
		return ErrWidth
	}

	mask := uint64(1)<<n - 1
	if err := w.out.WriteBits(uint64(value)&mask, uint8(n)); err != nil {
		return err
	}
	w.written += uint64(n)
	return nil
}

// Align zero-pads to the next byte boundary and returns the bits added.
func (w *Writer) Align() (uint, error) {
	skipped, err := w.out.Align()
	if err != nil {
		return 0, err
	}
	w.written += uint64(skipped)
	return uint(skipped), nil
}

// BitsWritten returns the number of bits written, padding included.
func (w *Writer) BitsWritten() uint64 {
	return w.written
}

// Bytes aligns the stream and returns the accumulated bytes, prefix included.
func (w *Writer) Bytes() ([]byte, error) {
	if _, err := w.Align(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}
