package googlebooks

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested volume does not exist.
var ErrNotFound = errors.New("volume not found")

// ServerError represents a 5xx error from the books API.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("books API server error: HTTP %d", e.StatusCode)
}
