package todo

import (
	"errors"
	"fmt"
)

// ErrAuthRequired reports a 401. The login prompt has already been opened
// and the operation did not take effect.
var ErrAuthRequired = errors.New("authentication required")

// ErrRequestFailed matches every *RequestFailedError.
var ErrRequestFailed = errors.New("request failed")

// ValidationError is bad local input. No request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RequestFailedError is a non-2xx response other than 401, or a transport
// failure. Local state was left unchanged.
type RequestFailedError struct {
	Op     string
	Status int
	Err    error
}

func (e *RequestFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
