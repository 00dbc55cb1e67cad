package rules

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	// ErrNoRules indicates an empty rule list where at least one rule is required.
	ErrNoRules = errors.New("no rules defined")

	// ErrInvalidRule indicates a rule failed boundary validation.
	ErrInvalidRule = errors.New("invalid rule")
)

// ValidationError reports a boundary validation failure for one rule field.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule %q: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("rule %q: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is makes ValidationError match ErrInvalidRule.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRule
}
