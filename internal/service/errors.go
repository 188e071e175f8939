package service

import (
	"errors"
	"fmt"

	"github.com/learnflex/learnflex-api/internal/store"
)

// Sentinel errors returned by the services. Callers check them with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a path or task belongs to another user.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotFound collapses the store's entity-specific not-found errors.
	// The store error stays in the chain.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict collapses store duplicate errors without a more specific sentinel.
	ErrConflict = errors.New("resource already exists")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already in use")
	ErrProfileExists      = errors.New("profile already exists")

	// ErrProfileRequired is returned by operations that read learner
	// preferences before a profile was created.
	ErrProfileRequired = errors.New("profile must be created first")

	ErrUploadsDisabled        = errors.New("photo uploads are not configured")
	ErrUnsupportedContentType = errors.New("unsupported image content type")
	ErrInvalidPhotoKey        = errors.New("photo key does not belong to this profile")
	ErrPhotoNotUploaded       = errors.New("photo has not been uploaded")

	// ErrInvalidTarget is returned for quiz paths that do not name a module,
	// lesson or section.
	ErrInvalidTarget = errors.New("path is not a module, lesson or section")
)

// ServiceError records which service operation failed.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with the failing operation. Store sentinels are
// translated into service sentinels while keeping the original in the chain.
// It returns nil for a nil err.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Op: op, Err: mapStoreError(err)}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrEmailExists), errors.Is(err, ErrProfileExists),
		errors.Is(err, ErrProfileRequired):
		return err
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrEmailExists):
		return fmt.Errorf("%w: %w", ErrEmailExists, err)
	case errors.Is(err, store.ErrProfileExists):
		return fmt.Errorf("%w: %w", ErrProfileExists, err)
	case store.IsDuplicateError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
