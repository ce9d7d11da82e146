package application

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFilter = errors.New("invalid filter")
	ErrUserNotFound  = errors.New("user not found")
)

// ValidationError reports a filter value that does not have the expected shape.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidFilter }

// NotFoundError reports a lookup for an identifier the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrUserNotFound }

// SearchError reports a non-2xx response from the search backend.
type SearchError struct {
	Status string
}

func (e *SearchError) Error() string {
	return "search backend returned " + e.Status
}
