package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/bundle"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/task"
)

// LibraryService is the curriculum API used by LibraryHandler.
type LibraryService interface {
	GenerateCurriculum(ctx context.Context, userID uuid.UUID, goal string) (*domain.Curriculum, error)
	SaveCurriculum(ctx context.Context, userID uuid.UUID, c domain.Curriculum) (*domain.Curriculum, error)
	ListCurricula(ctx context.Context, userID uuid.UUID) ([]domain.Curriculum, error)
	GetCurriculum(ctx context.Context, userID, curriculumID uuid.UUID) (*domain.Curriculum, error)
	DeleteCurriculum(ctx context.Context, userID, curriculumID uuid.UUID) error

	ListModules(ctx context.Context, userID, curriculumID uuid.UUID) ([]domain.Module, error)
	GetModule(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) (*domain.Module, error)
	ListLessons(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) ([]domain.Lesson, error)
	GetLesson(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) (*domain.Lesson, error)
	ListSections(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) ([]domain.Section, error)
	GetSection(ctx context.Context, userID, curriculumID, moduleID, lessonID, sectionID uuid.UUID) (*domain.Section, error)

	RequestModules(ctx context.Context, userID, curriculumID uuid.UUID) (uuid.UUID, error)
	RequestLessons(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) (uuid.UUID, error)
	RequestSections(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) (uuid.UUID, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Record, error)
}

var _ LibraryService = (*service.LibraryService)(nil)

// BundleReader loads cached curriculum bundles.
type BundleReader interface {
	Get(ctx context.Context, userID, curriculumID uuid.UUID) (*bundle.Bundle, error)
}

var _ BundleReader = (*bundle.Manager)(nil)

// LibraryHandler serves curricula and their generated content.
type LibraryHandler struct {
	library LibraryService
	bundles BundleReader
	logger  *slog.Logger
}

// NewLibraryHandler creates a LibraryHandler.
func NewLibraryHandler(library LibraryService, bundles BundleReader, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{
		library: library,
		bundles: bundles,
		logger:  logger.With(slog.String("component", "library_handler")),
	}
}

// userAndIDs resolves the caller and the named path IDs.
func (h *LibraryHandler) userAndIDs(w http.ResponseWriter, r *http.Request, names ...string) (uuid.UUID, []uuid.UUID, bool) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return uuid.Nil, nil, false
	}
	ids, ok := pathIDs(w, r, h.logger, names...)
	return userID, ids, ok
}

// respond writes v or maps err.
func respond[T any](w http.ResponseWriter, r *http.Request, v T, err error, fallback string) {
	if err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, v)
}

// GenerateCurriculum handles POST /curricula/generate.
func (h *LibraryHandler) GenerateCurriculum(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req GenerateCurriculumRequest
	if r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		if err := shared.ValidateRequest(req); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
			return
		}
	}

	draft, err := h.library.GenerateCurriculum(r.Context(), userID, req.Goal)
	respond(w, r, draft, err, "Failed to generate curriculum")
}

// SaveCurriculum handles POST /curricula.
func (h *LibraryHandler) SaveCurriculum(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req SaveCurriculumRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	saved, err := h.library.SaveCurriculum(r.Context(), userID, domain.Curriculum{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Type:        req.Type,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save curriculum")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, saved)
}

// ListCurricula handles GET /curricula.
func (h *LibraryHandler) ListCurricula(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.library.ListCurricula(r.Context(), userID)
	respond(w, r, nonNil(list), err, "Failed to list curricula")
}

// GetCurriculum handles GET /curricula/{cid}.
func (h *LibraryHandler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID)
	if !ok {
		return
	}
	c, err := h.library.GetCurriculum(r.Context(), userID, ids[0])
	respond(w, r, c, err, "Failed to load curriculum")
}

// DeleteCurriculum handles DELETE /curricula/{cid}.
func (h *LibraryHandler) DeleteCurriculum(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID)
	if !ok {
		return
	}
	if err := h.library.DeleteCurriculum(r.Context(), userID, ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete curriculum")
		return
	}
	shared.RespondNoContent(w)
}

// GetBundle handles GET /curricula/{cid}/bundle.
func (h *LibraryHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID)
	if !ok {
		return
	}
	b, err := h.bundles.Get(r.Context(), userID, ids[0])
	respond(w, r, b, err, "Failed to load curriculum bundle")
}

// ListModules handles GET /curricula/{cid}/modules.
func (h *LibraryHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID)
	if !ok {
		return
	}
	list, err := h.library.ListModules(r.Context(), userID, ids[0])
	respond(w, r, nonNil(list), err, "Failed to list modules")
}

// GetModule handles GET /curricula/{cid}/modules/{mid}.
func (h *LibraryHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID)
	if !ok {
		return
	}
	m, err := h.library.GetModule(r.Context(), userID, ids[0], ids[1])
	respond(w, r, m, err, "Failed to load module")
}

// ListLessons handles GET /curricula/{cid}/modules/{mid}/lessons.
func (h *LibraryHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID)
	if !ok {
		return
	}
	list, err := h.library.ListLessons(r.Context(), userID, ids[0], ids[1])
	respond(w, r, nonNil(list), err, "Failed to list lessons")
}

// GetLesson handles GET .../lessons/{lid}.
func (h *LibraryHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID, paramLessonID)
	if !ok {
		return
	}
	l, err := h.library.GetLesson(r.Context(), userID, ids[0], ids[1], ids[2])
	respond(w, r, l, err, "Failed to load lesson")
}

// ListSections handles GET .../lessons/{lid}/sections.
func (h *LibraryHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID, paramLessonID)
	if !ok {
		return
	}
	list, err := h.library.ListSections(r.Context(), userID, ids[0], ids[1], ids[2])
	respond(w, r, nonNil(list), err, "Failed to list sections")
}

// GetSection handles GET .../sections/{sid}.
func (h *LibraryHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID, paramLessonID, paramSectionID)
	if !ok {
		return
	}
	s, err := h.library.GetSection(r.Context(), userID, ids[0], ids[1], ids[2], ids[3])
	respond(w, r, s, err, "Failed to load section")
}

func (h *LibraryHandler) accepted(w http.ResponseWriter, r *http.Request, taskID uuid.UUID, err error) {
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start generation")
		return
	}
	w.Header().Set("Location", "/api/tasks/"+taskID.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{
		TaskID: taskID,
		Status: string(task.TaskStatusPending),
	})
}

// GenerateModules handles POST /curricula/{cid}/modules/generate.
func (h *LibraryHandler) GenerateModules(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID)
	if !ok {
		return
	}
	taskID, err := h.library.RequestModules(r.Context(), userID, ids[0])
	h.accepted(w, r, taskID, err)
}

// GenerateLessons handles POST .../modules/{mid}/lessons/generate.
func (h *LibraryHandler) GenerateLessons(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID)
	if !ok {
		return
	}
	taskID, err := h.library.RequestLessons(r.Context(), userID, ids[0], ids[1])
	h.accepted(w, r, taskID, err)
}

// GenerateSections handles POST .../lessons/{lid}/sections/generate.
func (h *LibraryHandler) GenerateSections(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramCurriculumID, paramModuleID, paramLessonID)
	if !ok {
		return
	}
	taskID, err := h.library.RequestSections(r.Context(), userID, ids[0], ids[1], ids[2])
	h.accepted(w, r, taskID, err)
}

// GetTask handles GET /tasks/{id}.
func (h *LibraryHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ids, ok := h.userAndIDs(w, r, paramID)
	if !ok {
		return
	}
	rec, err := h.library.GetTask(r.Context(), userID, ids[0])
	respond(w, r, rec, err, "Failed to load task")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
