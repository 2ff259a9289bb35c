// Package alloc sizes codec buffers against a hard ceiling.
//
// Packet and sample buffers are sized from untrusted header fields and from
// caller input. Requests above MaxBytes fail with ErrTooLarge instead of
// letting the runtime abort the process.
package alloc

import (
	"errors"
	"fmt"
)

// MaxBytes is the largest buffer the codec allocates in one piece.
const MaxBytes = 1 << 30

// ErrTooLarge indicates a request above MaxBytes.
var ErrTooLarge = errors.New("alloc: buffer exceeds limit")

// MaxSamples is the largest int16 buffer the codec allocates in one piece.
const MaxSamples = MaxBytes / 2

// Samples returns a zeroed int16 buffer of n samples.
func Samples(n uint64) ([]int16, error) {
	if err := CheckSamples(n, MaxSamples); err != nil {
		return nil, err
	}
	return make([]int16, n), nil
}

// CheckSamples fails with ErrTooLarge when a buffer of n samples would
// exceed limit. Buffers that grow chunk by chunk call it before each append.
func CheckSamples(n, limit uint64) error {
	if n > limit {
		return fmt.Errorf("%w: %d samples", ErrTooLarge, n)
	}
	return nil
}

// Bytes returns an empty byte buffer with capacity for n bytes.
func Bytes(n uint64) ([]byte, error) {
	if n > MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	return make([]byte, 0, n), nil
}
