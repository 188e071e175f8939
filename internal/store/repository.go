package store

import (
	"context"
	"database/sql"
)

// Repository stores documents of type T addressed by slash-separated paths.
//
// Paths follow the PathBuilder rules. Deleting a document also deletes every
// document stored beneath it.
type Repository[T any] interface {
	// Get returns ErrNotFound (or the collection-specific wrap) if nothing
	// is stored at path.
	Get(ctx context.Context, path string) (T, error)

	// GetAll returns the documents directly inside collectionPath, oldest
	// first. It returns an empty slice when the collection is empty.
	GetAll(ctx context.Context, collectionPath string) ([]T, error)

	// Insert returns ErrDuplicate if a document already exists at path.
	Insert(ctx context.Context, path string, doc T) error

	// Update returns ErrNotFound if path does not exist.
	Update(ctx context.Context, path string, doc T) error

	// Delete returns ErrNotFound if path does not exist.
	Delete(ctx context.Context, path string) error

	// DeleteAll removes everything in and below collectionPath.
	DeleteAll(ctx context.Context, collectionPath string) error

	// WithTx returns a repository bound to tx.
	WithTx(tx *sql.Tx) Repository[T]
}
