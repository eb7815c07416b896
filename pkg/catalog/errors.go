package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrMaterialNotFound indicates a material was not found
	ErrMaterialNotFound = errors.New("material not found")

	// ErrAuthorNotFound indicates an author was not found for the stated kind
	ErrAuthorNotFound = errors.New("author not found")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownAuthorKind indicates an author kind outside {person, institution}
	ErrUnknownAuthorKind = errors.New("unknown author kind")

	// ErrInvalidStatus indicates a status outside the closed three-state set
	ErrInvalidStatus = errors.New("invalid material status")

	// ErrInvalidTransition indicates a refused lifecycle transition
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrMissingSearchParameter indicates a search request with no criterion
	ErrMissingSearchParameter = errors.New("search parameter must be one of these: title, author, description")

	// ErrHasDependentMaterials indicates an author delete blocked by references
	ErrHasDependentMaterials = errors.New("author has dependent materials")

	// ErrAuthenticationFailed indicates a missing, malformed or expired token
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAuthorizationFailed indicates a valid identity that is not the owner
	ErrAuthorizationFailed = errors.New("authorization failed")
)

// ValidationError aggregates field-level validation messages. It renders
// as a 422 with the full message list at the request boundary.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Add appends a message and returns the receiver for chaining.
func (e *ValidationError) Add(format string, args ...interface{}) *ValidationError {
	e.Messages = append(e.Messages, fmt.Sprintf(format, args...))
	return e
}

// Merge appends another validation error's messages, ignoring nil.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	if other != nil {
		e.Messages = append(e.Messages, other.Messages...)
	}
	return e
}

// OrNil returns nil when no messages accumulated, so callers can return
// the result directly from a validate function.
func (e *ValidationError) OrNil() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}

// MaterialError wraps an error from a material operation.
type MaterialError struct {
	MaterialID uuid.UUID
	Op         string
	Err        error
}

func (e *MaterialError) Error() string {
	return fmt.Sprintf("material operation %s failed for material %s: %v", e.Op, e.MaterialID, e.Err)
}

func (e *MaterialError) Unwrap() error {
	return e.Err
}

// AuthorError wraps an error from an author operation.
type AuthorError struct {
	AuthorID uuid.UUID
	Kind     AuthorKind
	Op       string
	Err      error
}

func (e *AuthorError) Error() string {
	return fmt.Sprintf("author operation %s failed for %s %s: %v", e.Op, e.Kind, e.AuthorID, e.Err)
}

func (e *AuthorError) Unwrap() error {
	return e.Err
}
