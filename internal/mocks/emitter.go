package mocks

import (
	"context"
	"sync"

	"github.com/learnflex/learnflex-api/internal/events"
)

// MockEventEmitter records emitted events and optionally forwards them to
// Handler.
type MockEventEmitter struct {
	Handler events.EventHandler
	Err     error

	mu     sync.Mutex
	events []*events.TaskRequestEvent
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.Handler != nil {
		return m.Handler.HandleEvent(ctx, event)
	}
	return nil
}

// Events returns the recorded events.
func (m *MockEventEmitter) Events() []*events.TaskRequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.TaskRequestEvent(nil), m.events...)
}
