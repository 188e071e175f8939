package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnflex/learnflex-api/internal/events"
)

// Submitter accepts tasks for background execution. *TaskRunner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements events.EventHandler: it turns content
// generation requests into tasks and submits them to the runner. The task
// takes the event's ID.
type TaskFactoryEventHandler struct {
	factory *ContentTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler.
func NewTaskFactoryEventHandler(
	factory *ContentTaskFactory,
	runner Submitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent creates and submits a task for content generation events and
// ignores all others.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if !IsContentTaskType(event.Type) {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload ContentPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	task, err := h.factory.CreateTask(event.ID, event.Type, payload)
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"user_id", payload.UserID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
