package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

var (
	ErrNilGenerator  = errors.New("content generator cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrEmptyUserID   = errors.New("user ID cannot be empty")
	ErrEmptyParent   = errors.New("parent path cannot be empty")
	ErrUnknownParent = errors.New("parent path does not match task type")
)

// ContentGenerator generates and stores the children of a curriculum,
// module or lesson document. taskType says which children are wanted.
type ContentGenerator interface {
	GenerateChildren(ctx context.Context, userID uuid.UUID, taskType, parentPath string) (int, error)
}

// ContentPayload is the serialized data of a content generation task.
type ContentPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	ParentPath string    `json:"parent_path"`
}

// ContentGenerationTask generates the children of one document.
type ContentGenerationTask struct {
	id        uuid.UUID
	taskType  string
	payload   ContentPayload
	generator ContentGenerator
	logger    *slog.Logger
	status    TaskStatus
}

// IsContentTaskType reports whether taskType is one of the content generation types.
func IsContentTaskType(taskType string) bool {
	switch taskType {
	case TaskTypeGenerateModules, TaskTypeGenerateLessons, TaskTypeGenerateSections:
		return true
	}
	return false
}

// NewContentGenerationTask builds a pending task. id is usually the ID of the
// event that requested it so callers can report it before the task runs.
func NewContentGenerationTask(
	id uuid.UUID,
	taskType string,
	payload ContentPayload,
	generator ContentGenerator,
	logger *slog.Logger,
) (*ContentGenerationTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if !IsContentTaskType(taskType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
	if payload.UserID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if payload.ParentPath == "" {
		return nil, ErrEmptyParent
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &ContentGenerationTask{
		id:        id,
		taskType:  taskType,
		payload:   payload,
		generator: generator,
		logger:    logger.With("task_type", taskType, "parent_path", payload.ParentPath),
		status:    TaskStatusPending,
	}, nil
}

func (t *ContentGenerationTask) ID() uuid.UUID      { return t.id }
func (t *ContentGenerationTask) Type() string       { return t.taskType }
func (t *ContentGenerationTask) UserID() uuid.UUID  { return t.payload.UserID }
func (t *ContentGenerationTask) Status() TaskStatus { return t.status }

// Payload returns the JSON encoded ContentPayload.
func (t *ContentGenerationTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// Execute generates and persists the children.
func (t *ContentGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.InfoContext(ctx, "generating content")

	n, err := t.generator.GenerateChildren(ctx, t.payload.UserID, t.taskType, t.payload.ParentPath)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("generate children of %s: %w", t.payload.ParentPath, err)
	}

	t.status = TaskStatusCompleted
	t.logger.InfoContext(ctx, "content generated", "count", n)
	return nil
}

// ContentTaskFactory creates ContentGenerationTasks and restores them from
// stored records.
type ContentTaskFactory struct {
	generator ContentGenerator
	logger    *slog.Logger
}

// NewContentTaskFactory creates a new factory.
func NewContentTaskFactory(generator ContentGenerator, logger *slog.Logger) *ContentTaskFactory {
	return &ContentTaskFactory{
		generator: generator,
		logger:    logger.With("component", "content_task_factory"),
	}
}

// CreateTask creates a new pending task.
func (f *ContentTaskFactory) CreateTask(id uuid.UUID, taskType string, payload ContentPayload) (Task, error) {
	return NewContentGenerationTask(id, taskType, payload, f.generator, f.logger)
}

// Restore implements Factory.
func (f *ContentTaskFactory) Restore(rec Record) (Task, error) {
	if !IsContentTaskType(rec.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}
	var payload ContentPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return f.CreateTask(rec.ID, rec.Type, payload)
}

var _ Factory = (*ContentTaskFactory)(nil)
