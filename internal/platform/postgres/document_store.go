package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/store"
)

// DocumentStore implements store.Repository[T] over the documents table.
// Each document is stored as JSONB under its full path; collection holds the
// path of the containing collection.
type DocumentStore[T any] struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDocumentStore creates a DocumentStore for documents of type T.
func NewDocumentStore[T any](db store.DBTX, logger *slog.Logger) *DocumentStore[T] {
	return &DocumentStore[T]{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

var _ store.Repository[json.RawMessage] = (*DocumentStore[json.RawMessage])(nil)

// WithTx returns a store bound to tx.
func (s *DocumentStore[T]) WithTx(tx *sql.Tx) store.Repository[T] {
	return s.Tx(tx)
}

// Tx is WithTx returning the concrete type, for callers that need Set or Merge.
func (s *DocumentStore[T]) Tx(tx *sql.Tx) *DocumentStore[T] {
	return &DocumentStore[T]{db: tx, logger: s.logger}
}

func documentPath(path string) (store.ParsedPath, error) {
	p, err := store.ParsePath(path)
	if err != nil {
		return p, err
	}
	if !p.IsDocument() {
		return p, fmt.Errorf("%w: %q is a collection path", store.ErrInvalidPath, path)
	}
	return p, nil
}

func collectionPath(path string) error {
	p, err := store.ParsePath(path)
	if err != nil {
		return err
	}
	if !p.IsCollection() {
		return fmt.Errorf("%w: %q is a document path", store.ErrInvalidPath, path)
	}
	return nil
}

// Get implements store.Repository.
func (s *DocumentStore[T]) Get(ctx context.Context, path string) (T, error) {
	var doc T
	p, err := documentPath(path)
	if err != nil {
		return doc, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc, store.NotFoundFor(p.Collection())
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get document",
			slog.String("path", path), slog.String("error", err.Error()))
		return doc, MapError(err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

// GetAll implements store.Repository.
func (s *DocumentStore[T]) GetAll(ctx context.Context, collection string) ([]T, error) {
	if err := collectionPath(collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 ORDER BY created_at, path`, collection)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list documents",
			slog.String("collection", collection), slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]T, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, MapError(err)
		}
		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document in %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return docs, nil
}

// Insert implements store.Repository.
func (s *DocumentStore[T]) Insert(ctx context.Context, path string, doc T) error {
	if _, err := documentPath(path); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	parent, _ := store.Parent(path)
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (path, collection, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		path, parent, string(data), now)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.NewStoreError("document", "insert", path, store.ErrDuplicate)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert document",
			slog.String("path", path), slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// Set writes doc at path, creating it if missing.
func (s *DocumentStore[T]) Set(ctx context.Context, path string, doc T) error {
	if _, err := documentPath(path); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	parent, _ := store.Parent(path)
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, collection, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		path, parent, string(data), now)
	return MapError(err)
}

// Update implements store.Repository.
func (s *DocumentStore[T]) Update(ctx context.Context, path string, doc T) error {
	p, err := documentPath(path)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = $2, updated_at = $3 WHERE path = $1`,
		path, string(data), time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update document",
			slog.String("path", path), slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.NotFoundFor(p.Collection()))
}

// Merge shallow-merges the top-level fields of patch into the document at path.
func (s *DocumentStore[T]) Merge(ctx context.Context, path string, patch json.RawMessage) error {
	p, err := documentPath(path)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("%w: merge patch must be a JSON object", store.ErrInvalidEntity)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = data || $2::jsonb, updated_at = $3 WHERE path = $1`,
		path, string(patch), time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.NotFoundFor(p.Collection()))
}

// Delete implements store.Repository. Documents nested below path go with it.
func (s *DocumentStore[T]) Delete(ctx context.Context, path string) error {
	p, err := documentPath(path)
	if err != nil {
		return err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE path = $1)`, path).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.NotFoundFor(p.Collection())
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = $1 OR path LIKE $2`, path, descendantsPattern(path))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete document",
			slog.String("path", path), slog.String("error", err.Error()))
		return MapError(err)
	}
	n, _ := result.RowsAffected()
	logger.FromContextOrDefault(ctx, s.logger).Debug("deleted document tree",
		slog.String("path", path), slog.Int64("rows", n))
	return nil
}

// DeleteAll implements store.Repository.
func (s *DocumentStore[T]) DeleteAll(ctx context.Context, collection string) error {
	if err := collectionPath(collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path LIKE $1`, descendantsPattern(collection))
	return MapError(err)
}

// DeleteTree removes the document or collection at root and everything
// below it without requiring root itself to exist.
func (s *DocumentStore[T]) DeleteTree(ctx context.Context, root string) error {
	if _, err := store.ParsePath(root); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = $1 OR path LIKE $2`, root, descendantsPattern(root))
	return MapError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// descendantsPattern matches every path strictly below root.
func descendantsPattern(root string) string {
	return likeEscaper.Replace(root) + "/%"
}
