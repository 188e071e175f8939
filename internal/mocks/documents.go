package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/learnflex/learnflex-api/internal/store"
)

type memDoc struct {
	data []byte
	seq  int64
}

// DocumentSpace is an in-memory documents table shared by typed
// MemoryRepository views and MemoryDocumentWriter, so cascading deletes
// behave like the Postgres store.
type DocumentSpace struct {
	mu   sync.Mutex
	docs map[string]memDoc
	seq  int64
}

// NewDocumentSpace creates an empty space.
func NewDocumentSpace() *DocumentSpace {
	return &DocumentSpace{docs: make(map[string]memDoc)}
}

// Paths returns every stored path, sorted.
func (s *DocumentSpace) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.docs))
}

// Raw returns the JSON stored at path.
func (s *DocumentSpace) Raw(path string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	return d.data, ok
}

func (s *DocumentSpace) put(path string, data []byte, mustExist, mustNotExist bool) error {
	p, err := store.ParsePath(path)
	if err != nil {
		return err
	}
	if !p.IsDocument() {
		return fmt.Errorf("%w: %q is a collection path", store.ErrInvalidPath, path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	switch {
	case mustExist && !ok:
		return store.NotFoundFor(p.Collection())
	case mustNotExist && ok:
		return store.NewStoreError("document", "insert", path, store.ErrDuplicate)
	}
	if ok {
		existing.data = data
		s.docs[path] = existing
		return nil
	}
	s.seq++
	s.docs[path] = memDoc{data: data, seq: s.seq}
	return nil
}

func (s *DocumentSpace) get(path string) ([]byte, error) {
	p, err := store.ParsePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[path]
	if !ok {
		return nil, store.NotFoundFor(p.Collection())
	}
	return d.data, nil
}

func (s *DocumentSpace) list(collection string) ([][]byte, error) {
	if _, err := store.ParsePath(collection); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []memDoc
	for path, d := range s.docs {
		if parent, err := store.Parent(path); err == nil && parent == collection {
			found = append(found, d)
		}
	}
	slices.SortFunc(found, func(a, b memDoc) int { return int(a.seq - b.seq) })
	out := make([][]byte, 0, len(found))
	for _, d := range found {
		out = append(out, d.data)
	}
	return out, nil
}

func (s *DocumentSpace) deleteTree(root string, mustExist bool) error {
	p, err := store.ParsePath(root)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[root]; mustExist && !ok {
		return store.NotFoundFor(p.Collection())
	}
	for path := range s.docs {
		if path == root || strings.HasPrefix(path, root+"/") {
			delete(s.docs, path)
		}
	}
	return nil
}

// MemoryRepository is a typed store.Repository view over a DocumentSpace.
// ErrOn forces the named method ("Get", "Insert", ...) to fail.
type MemoryRepository[T any] struct {
	Space *DocumentSpace
	ErrOn map[string]error
}

// NewMemoryRepository creates a repository over space.
func NewMemoryRepository[T any](space *DocumentSpace) *MemoryRepository[T] {
	return &MemoryRepository[T]{Space: space, ErrOn: map[string]error{}}
}

var _ store.Repository[json.RawMessage] = (*MemoryRepository[json.RawMessage])(nil)

// Get implements store.Repository.
func (r *MemoryRepository[T]) Get(_ context.Context, path string) (T, error) {
	var doc T
	if err := r.ErrOn["Get"]; err != nil {
		return doc, err
	}
	data, err := r.Space.get(path)
	if err != nil {
		return doc, err
	}
	return doc, json.Unmarshal(data, &doc)
}

// GetAll implements store.Repository.
func (r *MemoryRepository[T]) GetAll(_ context.Context, collection string) ([]T, error) {
	if err := r.ErrOn["GetAll"]; err != nil {
		return nil, err
	}
	raws, err := r.Space.list(collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *MemoryRepository[T]) write(op, path string, doc T, mustExist, mustNotExist bool) error {
	if err := r.ErrOn[op]; err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.Space.put(path, data, mustExist, mustNotExist)
}

// Insert implements store.Repository.
func (r *MemoryRepository[T]) Insert(_ context.Context, path string, doc T) error {
	return r.write("Insert", path, doc, false, true)
}

// Update implements store.Repository.
func (r *MemoryRepository[T]) Update(_ context.Context, path string, doc T) error {
	return r.write("Update", path, doc, true, false)
}

// Delete implements store.Repository.
func (r *MemoryRepository[T]) Delete(_ context.Context, path string) error {
	if err := r.ErrOn["Delete"]; err != nil {
		return err
	}
	return r.Space.deleteTree(path, true)
}

// DeleteAll implements store.Repository.
func (r *MemoryRepository[T]) DeleteAll(_ context.Context, collection string) error {
	if err := r.ErrOn["DeleteAll"]; err != nil {
		return err
	}
	return r.Space.deleteTree(collection, false)
}

// WithTx returns the same repository.
func (r *MemoryRepository[T]) WithTx(*sql.Tx) store.Repository[T] { return r }

// MemoryDocumentWriter implements store.DocumentWriter over a DocumentSpace.
type MemoryDocumentWriter struct {
	Space *DocumentSpace
	ErrOn map[string]error
}

// NewMemoryDocumentWriter creates a writer over space.
func NewMemoryDocumentWriter(space *DocumentSpace) *MemoryDocumentWriter {
	return &MemoryDocumentWriter{Space: space, ErrOn: map[string]error{}}
}

var _ store.DocumentWriter = (*MemoryDocumentWriter)(nil)

// Get implements store.DocumentWriter.
func (w *MemoryDocumentWriter) Get(_ context.Context, path string) (json.RawMessage, error) {
	if err := w.ErrOn["Get"]; err != nil {
		return nil, err
	}
	data, err := w.Space.get(path)
	if err != nil {
		return nil, err
	}
	return append(json.RawMessage(nil), data...), nil
}

// Set implements store.DocumentWriter.
func (w *MemoryDocumentWriter) Set(_ context.Context, path string, data json.RawMessage) error {
	if err := w.ErrOn["Set"]; err != nil {
		return err
	}
	if !json.Valid(data) {
		return store.ErrInvalidEntity
	}
	return w.Space.put(path, append([]byte(nil), data...), false, false)
}

// Merge implements store.DocumentWriter.
func (w *MemoryDocumentWriter) Merge(_ context.Context, path string, patch json.RawMessage) error {
	if err := w.ErrOn["Merge"]; err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return store.ErrInvalidEntity
	}
	current, err := w.Space.get(path)
	if err != nil {
		return err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	maps.Copy(merged, fields)
	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return w.Space.put(path, data, true, false)
}

// Delete implements store.DocumentWriter.
func (w *MemoryDocumentWriter) Delete(_ context.Context, path string) error {
	if err := w.ErrOn["Delete"]; err != nil {
		return err
	}
	return w.Space.deleteTree(path, true)
}

// DeleteTree implements store.DocumentWriter.
func (w *MemoryDocumentWriter) DeleteTree(_ context.Context, root string) error {
	if err := w.ErrOn["DeleteTree"]; err != nil {
		return err
	}
	return w.Space.deleteTree(root, false)
}

// WithTx returns the same writer.
func (w *MemoryDocumentWriter) WithTx(*sql.Tx) store.DocumentWriter { return w }
