package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")

	// ErrNotOwned is returned when a user touches another user's session.
	ErrNotOwned = errors.New("session belongs to another user")
)

// DefaultTTL applies when a registry is built with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

// Registry keeps the live sessions of one flow kind.
type Registry[S, A any] struct {
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session[S, A]
}

// NewRegistry creates a registry that expires sessions idle for longer than ttl.
func NewRegistry[S, A any](ttl time.Duration, logger *slog.Logger) *Registry[S, A] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry[S, A]{
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session[S, A]),
	}
}

// Add registers s.
func (r *Registry[S, A]) Add(s *Session[S, A]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session if it exists, has not expired and belongs to owner.
func (r *Registry[S, A]) Get(owner, id uuid.UUID) (*Session[S, A], error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || r.expired(s) {
		return nil, ErrNotFound
	}
	if s.Owner != owner {
		return nil, ErrNotOwned
	}
	s.touch()
	return s, nil
}

// Remove drops a session.
func (r *Registry[S, A]) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// RemoveOwner drops every session of owner.
func (r *Registry[S, A]) RemoveOwner(owner uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.Owner == owner {
			delete(r.sessions, id)
		}
	}
}

// Len returns the number of registered sessions, expired or not.
func (r *Registry[S, A]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry[S, A]) expired(s *Session[S, A]) bool {
	return r.now().Sub(s.idleSince()) > r.ttl
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry[S, A]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (r *Registry[S, A]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("expired idle sessions", "count", n)
			}
		}
	}
}
