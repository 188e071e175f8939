package task

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryTaskStore is an in-memory TaskStore.
type memoryTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	saveErr error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, t Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.records[t.ID()] = &Record{
		ID: t.ID(), Type: t.Type(), UserID: t.UserID(), Payload: t.Payload(),
		Status: t.Status(), CreatedAt: now, UpdatedAt: now,
	}
	return nil
}

func (s *memoryTaskStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = &rec
}

func (s *memoryTaskStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	rec.Status = status
	rec.ErrorMessage = msg
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) < olderThan {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]Record, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *memoryTaskStore) WithTx(tx *sql.Tx) TaskStore { return s }

// fakeGenerator records calls and returns err.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
	types []string
	err   error
	done  chan struct{}
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{done: make(chan struct{}, 16)}
}

func (g *fakeGenerator) GenerateChildren(ctx context.Context, userID uuid.UUID, taskType, parentPath string) (int, error) {
	g.mu.Lock()
	g.calls = append(g.calls, parentPath)
	g.types = append(g.types, taskType)
	g.mu.Unlock()
	defer func() { g.done <- struct{}{} }()
	if g.err != nil {
		return 0, g.err
	}
	return 3, nil
}

func (g *fakeGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}
