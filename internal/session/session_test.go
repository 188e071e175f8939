package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ N int }

func counterReducer(_ context.Context, st counter, delta int, emit Emitter) (counter, error) {
	if delta < 0 {
		emit.Emit(Navigate("nowhere"))
		return st, Userf(errors.New("negative"), "Only positive steps.")
	}
	if delta == 0 {
		return st, errors.New("internal detail")
	}
	st.N += delta
	if st.N >= 10 {
		emit.Emit(Navigate("done"))
	}
	return st, nil
}

func TestDispatchAppliesReducer(t *testing.T) {
	t.Parallel()
	s := New(uuid.New(), "counter", counter{}, counterReducer)

	st, err := s.Dispatch(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, st.N)
	assert.Empty(t, s.DrainEvents())

	_, err = s.Dispatch(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, []Event{Navigate("done")}, s.DrainEvents())
	assert.Empty(t, s.DrainEvents())
}

func TestDispatchErrorKeepsStateAndQueuesSnackbar(t *testing.T) {
	t.Parallel()
	s := New(uuid.New(), "counter", counter{N: 3}, counterReducer)

	st, err := s.Dispatch(context.Background(), -1)
	require.Error(t, err)
	assert.Equal(t, 3, st.N)
	assert.Equal(t, []Event{ShowSnackbar("Only positive steps.")}, s.DrainEvents())

	_, err = s.Dispatch(context.Background(), 0)
	require.Error(t, err)
	events := s.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, genericMessage, events[0].Message)
	assert.Equal(t, 3, s.State().N)
}

func TestRegistryOwnershipAndExpiry(t *testing.T) {
	t.Parallel()
	reg := NewRegistry[counter, int](time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	owner := uuid.New()
	s := New(owner, "counter", counter{}, counterReducer)
	reg.Add(s)

	got, err := reg.Get(owner, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = reg.Get(uuid.New(), s.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
	_, err = reg.Get(owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	reg.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = reg.Get(owner, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, reg.Sweep())
	assert.Zero(t, reg.Len())
}

func TestRegistryRemoveOwner(t *testing.T) {
	t.Parallel()
	reg := NewRegistry[counter, int](0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a, b := uuid.New(), uuid.New()
	reg.Add(New(a, "counter", counter{}, counterReducer))
	reg.Add(New(a, "counter", counter{}, counterReducer))
	reg.Add(New(b, "counter", counter{}, counterReducer))

	reg.RemoveOwner(a)
	assert.Equal(t, 1, reg.Len())
}

func TestRunJanitorStopsWithContext(t *testing.T) {
	t.Parallel()
	reg := NewRegistry[counter, int](time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.Add(New(uuid.New(), "counter", counter{}, counterReducer))
	reg.now = func() time.Time { return time.Now().Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
