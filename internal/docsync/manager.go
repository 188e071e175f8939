package docsync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/redact"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/store"
)

// ErrSyncInProgress is returned when a user starts a sync while another one
// is still being applied.
var ErrSyncInProgress = errors.New("sync already in progress")

// MaxOperations bounds a single batch.
const MaxOperations = 500

// Bus fans status changes out to other server instances.
// *cache.RedisPubSub satisfies it.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	StartForwarder(ctx context.Context, onMsg func(payload []byte)) error
}

type envelope struct {
	Origin string `json:"origin"`
	Status Status `json:"status"`
}

// Manager applies sync batches and keeps each user's latest status.
type Manager struct {
	db      store.TxBeginner
	docs    store.DocumentWriter
	bundles service.BundleInvalidator
	logger  *slog.Logger
	now     func() time.Time

	instance string
	bus      Bus

	mu          sync.Mutex
	statuses    map[uuid.UUID]Status
	inFlight    map[uuid.UUID]bool
	subscribers map[uuid.UUID]map[*subscriber]struct{}
}

// NewManager creates a Manager. bundles may be nil.
func NewManager(
	db store.TxBeginner,
	docs store.DocumentWriter,
	bundles service.BundleInvalidator,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		db:          db,
		docs:        docs,
		bundles:     bundles,
		logger:      logger.With("component", "sync_manager"),
		now:         func() time.Time { return time.Now().UTC() },
		instance:    uuid.NewString(),
		statuses:    make(map[uuid.UUID]Status),
		inFlight:    make(map[uuid.UUID]bool),
		subscribers: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

// AttachBus publishes local status changes on bus and delivers statuses
// published by other instances to local subscribers, until ctx ends.
func (m *Manager) AttachBus(ctx context.Context, bus Bus) error {
	err := bus.StartForwarder(ctx, func(payload []byte) {
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			m.logger.Warn("dropping malformed sync status", "error", err)
			return
		}
		if env.Origin == m.instance {
			return
		}
		m.mu.Lock()
		m.record(env.Status)
		m.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("attach sync bus: %w", err)
	}
	m.mu.Lock()
	m.bus = bus
	m.mu.Unlock()
	return nil
}

// Status returns the user's latest status, idle if they never synced.
func (m *Manager) Status(userID uuid.UUID) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.statuses[userID]; ok {
		return st
	}
	return idleStatus(userID)
}

// Subscribe returns a channel that receives the current status immediately
// and every later change. Call cancel to release it; the channel is then
// closed.
func (m *Manager) Subscribe(userID uuid.UUID) (<-chan Status, func()) {
	sub := newSubscriber()

	m.mu.Lock()
	subs, ok := m.subscribers[userID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		m.subscribers[userID] = subs
	}
	subs[sub] = struct{}{}
	st, ok := m.statuses[userID]
	if !ok {
		st = idleStatus(userID)
	}
	sub.offer(st)
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers[userID], sub)
			if len(m.subscribers[userID]) == 0 {
				delete(m.subscribers, userID)
			}
			sub.close()
		})
	}
	return sub.ch, cancel
}

// record stores st and notifies subscribers. Callers hold m.mu.
func (m *Manager) record(st Status) {
	m.statuses[st.UserID] = st
	for sub := range m.subscribers[st.UserID] {
		sub.offer(st)
	}
}

func (m *Manager) transition(ctx context.Context, st Status) {
	st.UpdatedAt = m.now()

	m.mu.Lock()
	m.record(st)
	bus := m.bus
	m.mu.Unlock()

	if bus == nil {
		return
	}
	payload, err := json.Marshal(envelope{Origin: m.instance, Status: st})
	if err == nil {
		err = bus.Publish(ctx, payload)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, m.logger).Warn("failed to publish sync status",
			"user_id", st.UserID, "error", err)
	}
}

// Apply validates ops and applies them atomically. Only one batch per user
// runs at a time. Validation failures leave the status untouched; write
// failures move it to error.
func (m *Manager) Apply(ctx context.Context, userID uuid.UUID, ops []Operation) (Status, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With("user_id", userID)

	if len(ops) > MaxOperations {
		return Status{}, fmt.Errorf("%w: batch of %d exceeds %d operations", ErrInvalidOperation, len(ops), MaxOperations)
	}
	ops = slices.Clone(ops)
	for i := range ops {
		if err := ops[i].Validate(userID); err != nil {
			log.Warn("rejecting sync batch", "index", i, "error", err)
			return Status{}, err
		}
	}

	m.mu.Lock()
	if m.inFlight[userID] {
		m.mu.Unlock()
		return Status{}, ErrSyncInProgress
	}
	m.inFlight[userID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, userID)
		m.mu.Unlock()
	}()

	m.transition(ctx, Status{UserID: userID, State: StateSyncing})
	log.Info("applying sync batch", "operations", len(ops))

	err := store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		docs := m.docs.WithTx(tx)
		for i, op := range ops {
			if err := applyOne(ctx, userID, docs, op); err != nil {
				return fmt.Errorf("operation %d (%s %s): %w", i, op.Type, op.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("sync batch failed", "error", redact.Error(err))
		st := Status{UserID: userID, State: StateError, Message: failureMessage(err)}
		m.transition(ctx, st)
		return m.Status(userID), err
	}

	m.invalidate(ctx, userID, ops)
	m.transition(ctx, Status{UserID: userID, State: StateSuccess, Applied: len(ops)})
	log.Info("sync batch applied", "operations", len(ops))
	return m.Status(userID), nil
}

func applyOne(ctx context.Context, userID uuid.UUID, docs store.DocumentWriter, op Operation) error {
	switch op.Type {
	case OpSet:
		return docs.Set(ctx, op.Path, op.Data)
	case OpUpdate:
		current, err := docs.Get(ctx, op.Path)
		if err != nil {
			return err
		}
		merged, err := mergeFields(current, op.Data)
		if err != nil {
			return err
		}
		doc, err := checkDocument(userID, op.Path, op.target, merged)
		if err != nil {
			return err
		}
		return docs.Set(ctx, op.Path, doc)
	case OpDelete:
		if err := docs.Delete(ctx, op.Path); err != nil && !store.IsNotFoundError(err) {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
}

// failureMessage is the client-facing text for a failed batch. The detail
// only goes to the logs.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOperation):
		return "Some changes were invalid and none were applied."
	case store.IsNotFoundError(err):
		return "A changed item no longer exists. None of the changes were applied."
	default:
		return "Sync failed. Please try again."
	}
}

func (m *Manager) invalidate(ctx context.Context, userID uuid.UUID, ops []Operation) {
	if m.bundles == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, m.logger)

	seen := make(map[uuid.UUID]bool)
	for _, op := range ops {
		cid, whole := touched(op)
		if whole {
			if err := m.bundles.InvalidateUser(ctx, userID); err != nil {
				log.Warn("failed to invalidate bundles", "user_id", userID, "error", err)
			}
			return
		}
		seen[cid] = true
	}
	for cid := range seen {
		if err := m.bundles.Invalidate(ctx, userID, cid); err != nil {
			log.Warn("failed to invalidate bundle", "user_id", userID, "curriculum_id", cid, "error", err)
		}
	}
}
