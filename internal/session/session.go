package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of a one-shot event.
type EventType string

const (
	EventNavigate     EventType = "navigate"
	EventShowSnackbar EventType = "show_snackbar"
)

// Event is a one-shot instruction for the client.
type Event struct {
	Type    EventType `json:"type"`
	Route   string    `json:"route,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Navigate asks the client to move to route.
func Navigate(route string) Event {
	return Event{Type: EventNavigate, Route: route}
}

// ShowSnackbar asks the client to show a transient message.
func ShowSnackbar(message string) Event {
	return Event{Type: EventShowSnackbar, Message: message}
}

// Emitter collects events raised by a reducer.
type Emitter interface {
	Emit(Event)
}

type eventBuffer []Event

func (b *eventBuffer) Emit(e Event) { *b = append(*b, e) }

// Reducer computes the next state for an action.
type Reducer[S, A any] func(ctx context.Context, state S, action A, emit Emitter) (S, error)

// Session is one running flow.
type Session[S, A any] struct {
	ID      uuid.UUID
	Owner   uuid.UUID
	Kind    string
	reducer Reducer[S, A]

	mu       sync.Mutex
	state    S
	events   []Event
	lastUsed time.Time
}

// New creates a session in state initial.
func New[S, A any](owner uuid.UUID, kind string, initial S, reducer Reducer[S, A]) *Session[S, A] {
	return &Session[S, A]{
		ID:       uuid.New(),
		Owner:    owner,
		Kind:     kind,
		reducer:  reducer,
		state:    initial,
		lastUsed: time.Now(),
	}
}

// Dispatch applies action and returns the resulting state. On error the
// state is unchanged, events emitted during the failed step are dropped and a
// snackbar is queued instead.
func (s *Session[S, A]) Dispatch(ctx context.Context, action A) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	var emitted eventBuffer
	next, err := s.reducer(ctx, s.state, action, &emitted)
	if err != nil {
		s.events = append(s.events, ShowSnackbar(UserMessage(err)))
		return s.state, err
	}
	s.state = next
	s.events = append(s.events, emitted...)
	return s.state, nil
}

// State returns the current state.
func (s *Session[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DrainEvents returns queued events and clears the queue.
func (s *Session[S, A]) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

func (s *Session[S, A]) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session[S, A]) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Message is an error carrying text that is safe to show to the learner.
type Message struct {
	Text string
	Err  error
}

func (m *Message) Error() string {
	if m.Err != nil {
		return m.Text + ": " + m.Err.Error()
	}
	return m.Text
}

func (m *Message) Unwrap() error { return m.Err }

// Userf wraps err with a learner-facing message.
func Userf(err error, text string) error {
	return &Message{Text: text, Err: err}
}

const genericMessage = "Something went wrong. Please try again."

// UserMessage returns the learner-facing text for err.
func UserMessage(err error) string {
	var m *Message
	if errors.As(err, &m) {
		return m.Text
	}
	return genericMessage
}
