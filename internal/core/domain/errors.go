package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by collaborator calls and local checks.
var (
	ErrAuth       = errors.New("authentication failed")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrFetch      = errors.New("request failed")
	ErrUnexpected = errors.New("unexpected error")
)

// APIError is a normalised collaborator failure: one kind plus one
// human-readable message suitable for inline display.
type APIError struct {
	Kind    error
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Kind }

// NewAPIError builds an APIError of the given kind.
func NewAPIError(kind error, status int, message string) *APIError {
	return &APIError{Kind: kind, Status: status, Message: message}
}

// Message returns the human-readable text for err, preferring the message
// carried by an APIError.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Invalid wraps ErrValidation with a user-facing message.
func Invalid(message string) error {
	return &APIError{Kind: ErrValidation, Message: message}
}
