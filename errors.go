package sea

import (
	"errors"

	"github.com/llehouerou/go-sea/internal/alloc"
)

// Error represents a codec result code.
//
// Detailed errors returned by the package wrap one of these codes, so
// callers test for a class of failure with errors.Is:
//
//	if errors.Is(err, sea.ErrCorruptPacket) { ... }
type Error int

// Result codes. The numeric values are stable and are what Code returns.
const (
	ErrNone              Error = 0
	ErrInvalidArgument   Error = 1
	ErrAllocationFailure Error = 2
	ErrCorruptPacket     Error = 3
)

// errMessages holds the message for each result code.
var errMessages = [4]string{
	"No error",
	"Invalid argument",
	"Allocation failure",
	"Corrupt packet",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return errMessages[e]
	}
	return "unknown error"
}

// Code returns the result code for err: 0 for nil, the wrapped Error code
// when there is one, and -1 for any other error.
func Code(err error) int {
	if err == nil {
		return int(ErrNone)
	}
	var e Error
	if errors.As(err, &e) {
		return int(e)
	}
	return -1
}

// wrapDecodeError maps internal decoding failures to the public codes.
// Errors that already carry a code pass through.
func wrapDecodeError(err error) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, alloc.ErrTooLarge) {
		return &codedError{code: ErrAllocationFailure, err: err}
	}
	// bits.ErrUnderflow and every other malformed-field error land here.
	return &codedError{code: ErrCorruptPacket, err: err}
}

// wrapEncodeError maps internal encoding failures to the public codes.
// Errors that already carry a code pass through. Encoding only fails on
// settings or a policy that produced fields the format cannot hold.
func wrapEncodeError(err error) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, alloc.ErrTooLarge) {
		return &codedError{code: ErrAllocationFailure, err: err}
	}
	return &codedError{code: ErrInvalidArgument, err: err}
}

// codedError attaches a result code to an internal error while keeping the
// internal error reachable through errors.Is.
type codedError struct {
	code Error
	err  error
}

func (e *codedError) Error() string {
	return e.code.Error() + ": " + e.err.Error()
}

func (e *codedError) Unwrap() []error {
	return []error{e.code, e.err}
}
