package domain

import (
	"errors"
	"fmt"
)

// Failure kinds every inventory call is translated into before it reaches
// the session layer.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrTransport              = errors.New("inventory service unavailable")
)

// ServiceError carries the inventory service's own message next to the kind.
type ServiceError struct {
	Kind    error
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

// ServerMessage returns the message supplied by the inventory service, if any.
func ServerMessage(err error) (string, bool) {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
