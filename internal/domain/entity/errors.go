package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is matched by every error returned from Validate and
// ValidateAbsoluteURL.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError names the record or configuration field that broke a rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes a lone ValidationError match ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
