package task

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue(t *testing.T) {
	t.Parallel()

	factory := NewContentTaskFactory(newFakeGenerator(), discardLogger())
	newTask := func() Task {
		task, err := factory.CreateTask(uuid.Nil, TaskTypeGenerateModules, ContentPayload{
			UserID: uuid.New(), ParentPath: "profiles/u/curricula/c",
		})
		require.NoError(t, err)
		return task
	}

	q := NewTaskQueue(1, discardLogger())
	first := newTask()
	require.NoError(t, q.Enqueue(first))
	assert.ErrorIs(t, q.Enqueue(newTask()), ErrQueueFull)

	got := <-q.GetChannel()
	assert.Equal(t, first.ID(), got.ID())

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(newTask()), ErrQueueClosed)
}
