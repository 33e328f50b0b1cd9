package yenc

import (
	"errors"
	"fmt"
)

// Errors returned by the decoder. All of them abort the current decode.
var (
	// ErrFormat is returned when a source ends without a =ybegin line.
	ErrFormat = errors.New("yenc: no =ybegin header found in input")

	// ErrUnexpectedPartHeader is returned for a =ypart line in a single-part stream.
	ErrUnexpectedPartHeader = errors.New("yenc: unexpected part header")

	// ErrMissingPartHeader is returned when a multi-part stream has no =ypart line.
	ErrMissingPartHeader = errors.New("yenc: missing part header")

	// ErrMissingFooter is returned when a source ends before its =yend line.
	ErrMissingFooter = errors.New("yenc: end of input without =yend trailer")

	ErrPartMismatch     = errors.New("yenc: part mismatch")
	ErrSizeMismatch     = errors.New("yenc: size mismatch")
	ErrChecksumMismatch = errors.New("yenc: checksum mismatch")

	// Mode violations across the sources of one Decode call.
	ErrUnexpectedFilePart       = errors.New("yenc: unexpected file part")
	ErrUnexpectedSinglePartFile = errors.New("yenc: unexpected single-part file")
	ErrDuplicateSinglePartFile  = errors.New("yenc: unexpected second single-part file")

	// ErrTooLarge is returned for a file or part past the size limit.
	ErrTooLarge = errors.New("yenc: file exceeds size limit")

	// ErrParse is wrapped by every *FieldError.
	ErrParse = errors.New("yenc: malformed directive field")
)

// MismatchError reports a footer value that disagrees with the header or
// with the decoded payload.
type MismatchError struct {
	Err      error // one of ErrPartMismatch, ErrSizeMismatch, ErrChecksumMismatch
	Field    string
	Expected any
	Actual   any
}

func (e *MismatchError) Error() string {
	switch e.Err {
	case ErrChecksumMismatch:
		return fmt.Sprintf("%v: %s expected %#08x, got %#08x", e.Err, e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%v: %s expected %v, got %v", e.Err, e.Field, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return e.Err }

// FieldError is returned when a directive field can not be converted.
type FieldError struct {
	Directive string // =ybegin, =ypart or =yend
	Field     string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s %s=%q: %v", ErrParse, e.Directive, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrParse, e.Err} }

func mismatch(err error, field string, expected, actual any) error {
	return &MismatchError{Err: err, Field: field, Expected: expected, Actual: actual}
}
