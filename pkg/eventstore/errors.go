package eventstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrSchemaInvalid is returned when a run's structural invariants are violated,
	// e.g. step sequence is not 0..N-1.
	ErrSchemaInvalid = errors.New("schema invalid")

	// ErrPrivacyViolation is returned when metadata or a failure message crosses
	// the content boundary.
	ErrPrivacyViolation = errors.New("privacy violation")

	// ErrMissingFailure is returned when status=failure but no AgentFailure was supplied.
	ErrMissingFailure = errors.New("missing failure")

	// ErrIntegrityConflict is returned on a uniqueness or foreign-key violation
	// that is not the idempotent-duplicate-run case.
	ErrIntegrityConflict = errors.New("integrity conflict")
)

// ValidationError wraps a field-specific rejection at the ingest boundary.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func newValidationError(kind error, field, message string) error {
	return &ValidationError{Field: field, Message: message, Kind: kind}
}
