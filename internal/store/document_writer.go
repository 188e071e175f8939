package store

import (
	"context"
	"database/sql"
	"encoding/json"
)

// DocumentWriter writes untyped JSON documents anywhere in the path
// hierarchy. Sync batches and account deletion use it.
type DocumentWriter interface {
	// Get returns the raw document at path.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Set creates or replaces the document at path.
	Set(ctx context.Context, path string, data json.RawMessage) error

	// Merge shallow-merges the fields of patch into an existing document.
	Merge(ctx context.Context, path string, patch json.RawMessage) error

	// Delete removes the document and its descendants.
	// Returns ErrNotFound if path does not exist.
	Delete(ctx context.Context, path string) error

	// DeleteTree removes root and everything below it, if anything.
	DeleteTree(ctx context.Context, root string) error

	WithTx(tx *sql.Tx) DocumentWriter
}
