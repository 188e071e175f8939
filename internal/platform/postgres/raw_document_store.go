package postgres

import (
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/learnflex/learnflex-api/internal/store"
)

// RawDocumentStore is a DocumentStore of raw JSON that satisfies
// store.DocumentWriter.
type RawDocumentStore struct {
	*DocumentStore[json.RawMessage]
}

var _ store.DocumentWriter = (*RawDocumentStore)(nil)

// NewRawDocumentStore creates a RawDocumentStore.
func NewRawDocumentStore(db store.DBTX, logger *slog.Logger) *RawDocumentStore {
	return &RawDocumentStore{DocumentStore: NewDocumentStore[json.RawMessage](db, logger)}
}

// WithTx implements store.DocumentWriter.
func (s *RawDocumentStore) WithTx(tx *sql.Tx) store.DocumentWriter {
	return &RawDocumentStore{DocumentStore: s.DocumentStore.Tx(tx)}
}
