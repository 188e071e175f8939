// Package docsync applies batches of offline-queued document operations and
// tracks a per-user sync status that clients can watch.
package docsync

import (
	"time"

	"github.com/google/uuid"
)

// State is the phase of a user's most recent sync.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is the sync state of one user.
type Status struct {
	UserID    uuid.UUID `json:"user_id"`
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	Applied   int       `json:"applied"`
	UpdatedAt time.Time `json:"updated_at"`
}

func idleStatus(userID uuid.UUID) Status {
	return Status{UserID: userID, State: StateIdle}
}

// subscriber holds at most one undelivered status. A newer status replaces
// an undelivered one, so slow readers always end up with the latest.
type subscriber struct {
	ch     chan Status
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{ch: make(chan Status, 1)}
}

// offer must be called with the manager lock held.
func (s *subscriber) offer(st Status) {
	if s.closed {
		return
	}
	select {
	case s.ch <- st:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- st
}

// close must be called with the manager lock held.
func (s *subscriber) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
