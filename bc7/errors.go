package bc7

import "errors"

// ErrorCode classifies encoder API errors.
type ErrorCode uint32

const (
	// Success is the zero code; it is never carried by a non-nil error.
	Success ErrorCode = 0

	// ErrBadParam reports an invalid argument (nil buffers, bad dimensions).
	ErrBadParam ErrorCode = 1

	// ErrBadSettings reports a Settings value that cannot produce output,
	// e.g. every mode family disabled.
	ErrBadSettings ErrorCode = 2

	// ErrOutOfMem reports an output buffer too small for the block grid.
	ErrOutOfMem ErrorCode = 3

	// ErrBadImage reports source pixel data inconsistent with the stated
	// dimensions and stride.
	ErrBadImage ErrorCode = 4
)

// Error is a typed error carrying an ErrorCode.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	return "bc7: error"
}

// ErrorCodeOf returns the code carried by err, or Success for nil.
//
// For non-*Error errors it returns ErrBadParam as a conservative fallback.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrBadParam
}

func newError(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}
