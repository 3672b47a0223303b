package decode

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidUTF8   = errors.New("input is not valid UTF-8")
	ErrTrailingData  = errors.New("unexpected data after top-level value")
	ErrNotAnObject   = errors.New("top-level value is not an object")
	ErrTooDeep       = errors.New("exceeded max depth")
	errUnexpectedKey = errors.New("object key is not a string")
)

// DecodeError reports input that could not be decoded. Nothing is returned
// alongside it.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(err error, msg string) error {
	return &DecodeError{Err: errors.Wrap(err, msg)}
}
