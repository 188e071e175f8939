package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (a path or an email).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored or violates a database constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidPath is returned when a document or collection path is malformed.
	ErrInvalidPath = errors.New("invalid document path")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors.
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrProfileNotFound    = fmt.Errorf("%w: profile", ErrNotFound)
	ErrCurriculumNotFound = fmt.Errorf("%w: curriculum", ErrNotFound)
	ErrModuleNotFound     = fmt.Errorf("%w: module", ErrNotFound)
	ErrLessonNotFound     = fmt.Errorf("%w: lesson", ErrNotFound)
	ErrSectionNotFound    = fmt.Errorf("%w: section", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("%w: task", ErrNotFound)

	// Entity-specific "duplicate" errors.
	ErrEmailExists   = fmt.Errorf("%w: email", ErrDuplicate)
	ErrProfileExists = fmt.Errorf("%w: profile", ErrDuplicate)
)

// IsNotFoundError reports whether err is, or wraps, any "not found" error.
// Entity-specific errors wrap ErrNotFound, so one check covers them all.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is, or wraps, any "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// NotFoundFor returns the entity-specific not-found error for a collection
// name, falling back to ErrNotFound.
func NotFoundFor(collection string) error {
	switch collection {
	case CollectionProfiles:
		return ErrProfileNotFound
	case CollectionCurricula:
		return ErrCurriculumNotFound
	case CollectionModules:
		return ErrModuleNotFound
	case CollectionLessons:
		return ErrLessonNotFound
	case CollectionSections:
		return ErrSectionNotFound
	}
	return ErrNotFound
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "user", "curricula")
	Operation string // The operation that failed (e.g., "insert", "update")
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
