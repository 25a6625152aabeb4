// Package apperr defines the error taxonomy shared by the scoring core.
package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches any *InvalidInput via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInput reports a caller-supplied value the core refuses to process,
// such as an empty question pool or an unparseable timestamp.
type InvalidInput struct {
	Field  string
	Reason string
	Err    error
}

// Invalid builds an *InvalidInput for field.
func Invalid(field, reason string) *InvalidInput {
	return &InvalidInput{Field: field, Reason: reason}
}

func (e *InvalidInput) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInput) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInput) Is(target error) bool { return target == ErrInvalidInput }

// IsInvalidInput reports whether err carries an *InvalidInput.
func IsInvalidInput(err error) bool {
	var ii *InvalidInput
	return errors.As(err, &ii)
}
