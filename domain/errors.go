package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound indicates the operation target id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound indicates a referenced user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden indicates the authorization policy rejected the operation.
	// It is expected control flow, not a fault.
	ErrForbidden = errors.New("not authorized")
)

// ValidationError reports a required or malformed field on a mutation request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
