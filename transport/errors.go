package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
)

// ErrUnauthorized is returned for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response decoded from the server.
type APIError struct {
	Status      int
	Message     string
	Fields      []FieldError
	Diagnostics []permission.Diagnostic
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the store and permission sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return store.ErrVersionConflict
	case http.StatusBadRequest:
		return store.ErrInvalidRecord
	case http.StatusUnprocessableEntity:
		return permission.ErrValidationFailed
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	if e.Status >= http.StatusInternalServerError {
		return store.ErrUnavailable
	}
	return nil
}
