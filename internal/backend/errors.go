package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested resource is absent on the backend.
var ErrNotFound = errors.New("resource not found")

// ErrInvalidCredentials indicates a rejected login or registration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ServerError represents a 5xx error from the backend.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend server error: HTTP %d", e.StatusCode)
}
