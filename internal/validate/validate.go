// Package validate holds the argument checks shared by the query and action
// layers. Every check runs before any I/O.
package validate

import (
	"fmt"
	"slices"
	"strings"
)

// Error reports a rejected argument.
type Error struct {
	Field  string
	Value  any
	Reason string
}

func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

// Required rejects empty or whitespace-only strings.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// OneOf rejects values outside allowed.
func OneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &Error{Field: field, Value: value, Reason: "must be one of " + strings.Join(allowed, ", ")}
}

// Range rejects integers outside [lo, hi].
func Range(field string, value, lo, hi int) error {
	if value < lo || value > hi {
		return &Error{Field: field, Value: value, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

// NonNegative rejects negative integers.
func NonNegative(field string, value int) error {
	if value < 0 {
		return &Error{Field: field, Value: value, Reason: "must not be negative"}
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
