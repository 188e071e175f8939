package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/bundle"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/learnflex/learnflex-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLibrary serves one curriculum owned by owner.
type fakeLibrary struct {
	LibraryService
	owner      uuid.UUID
	curriculum *domain.Curriculum
	requested  []uuid.UUID
	requestErr error
	generated  string
	saved      *domain.Curriculum
}

func (f *fakeLibrary) check(userID, curriculumID uuid.UUID) error {
	if curriculumID != f.curriculum.ID {
		return service.NewServiceError("library", "get", store.ErrCurriculumNotFound)
	}
	if userID != f.owner {
		return service.NewServiceError("library", "get", service.ErrNotOwned)
	}
	return nil
}

func (f *fakeLibrary) GenerateCurriculum(_ context.Context, _ uuid.UUID, goal string) (*domain.Curriculum, error) {
	f.generated = goal
	return domain.NewCurriculum("Draft", "A draft", []string{"One", "Two"}, domain.CurriculumTypeCourse)
}

func (f *fakeLibrary) SaveCurriculum(_ context.Context, _ uuid.UUID, c domain.Curriculum) (*domain.Curriculum, error) {
	f.saved = &c
	return &c, nil
}

func (f *fakeLibrary) ListCurricula(context.Context, uuid.UUID) ([]domain.Curriculum, error) {
	return nil, nil
}

func (f *fakeLibrary) GetCurriculum(_ context.Context, userID, curriculumID uuid.UUID) (*domain.Curriculum, error) {
	if err := f.check(userID, curriculumID); err != nil {
		return nil, err
	}
	return f.curriculum, nil
}

func (f *fakeLibrary) RequestModules(_ context.Context, userID, curriculumID uuid.UUID) (uuid.UUID, error) {
	if err := f.check(userID, curriculumID); err != nil {
		return uuid.Nil, err
	}
	if f.requestErr != nil {
		return uuid.Nil, f.requestErr
	}
	id := uuid.New()
	f.requested = append(f.requested, id)
	return id, nil
}

func (f *fakeLibrary) GetTask(_ context.Context, userID, taskID uuid.UUID) (*task.Record, error) {
	if userID != f.owner {
		return nil, service.ErrNotOwned
	}
	return &task.Record{ID: taskID, Type: task.TaskTypeGenerateModules, UserID: userID, Status: task.TaskStatusCompleted}, nil
}

type fakeBundles struct {
	bundle *bundle.Bundle
}

func (f fakeBundles) Get(context.Context, uuid.UUID, uuid.UUID) (*bundle.Bundle, error) {
	return f.bundle, nil
}

func newLibraryAPI(t *testing.T) (*testAPI, *fakeLibrary) {
	t.Helper()
	a := newTestAPI()
	c, err := domain.NewCurriculum("Go", "Learn Go", []string{"Syntax", "Concurrency"}, domain.CurriculumTypeCourse)
	require.NoError(t, err)
	lib := &fakeLibrary{owner: a.user, curriculum: c}
	a.library = lib
	a.bundles = fakeBundles{bundle: &bundle.Bundle{Curriculum: *c}}
	return a, lib
}

func TestGetCurriculum(t *testing.T) {
	t.Parallel()
	a, lib := newLibraryAPI(t)

	w := a.do(t, http.MethodGet, "/api/curricula/"+lib.curriculum.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go", decodeBody[domain.Curriculum](t, w).Title)

	w = a.do(t, http.MethodGet, "/api/curricula/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Curriculum not found", errorBody(t, w).Error)

	w = a.do(t, http.MethodGet, "/api/curricula/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lib.owner = uuid.New()
	w = a.do(t, http.MethodGet, "/api/curricula/"+lib.curriculum.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListCurriculaReturnsEmptyArray(t *testing.T) {
	t.Parallel()
	a, _ := newLibraryAPI(t)

	w := a.do(t, http.MethodGet, "/api/curricula", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGenerateAndSaveCurriculum(t *testing.T) {
	t.Parallel()
	a, lib := newLibraryAPI(t)

	w := a.do(t, http.MethodPost, "/api/curricula/generate", GenerateCurriculumRequest{Goal: "Ship a Go service"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ship a Go service", lib.generated)

	w = a.do(t, http.MethodPost, "/api/curricula/generate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, lib.generated)

	draft := decodeBody[domain.Curriculum](t, w)
	w = a.do(t, http.MethodPost, "/api/curricula", SaveCurriculumRequest{
		ID: draft.ID, Title: draft.Title, Content: draft.Content, Type: draft.Type,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, lib.saved)
	assert.Equal(t, draft.ID, lib.saved.ID)

	w = a.do(t, http.MethodPost, "/api/curricula", SaveCurriculumRequest{Title: "No content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateModulesAccepted(t *testing.T) {
	t.Parallel()
	a, lib := newLibraryAPI(t)
	path := "/api/curricula/" + lib.curriculum.ID.String() + "/modules/generate"

	w := a.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, lib.requested, 1)
	resp := decodeBody[TaskAcceptedResponse](t, w)
	assert.Equal(t, lib.requested[0], resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "/api/tasks/"+resp.TaskID.String(), w.Header().Get("Location"))

	w = a.do(t, http.MethodGet, "/api/tasks/"+resp.TaskID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, task.TaskStatusCompleted, decodeBody[task.Record](t, w).Status)
}

func TestGenerateModulesErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"model unavailable", generation.ErrTransientFailure, http.StatusServiceUnavailable},
		{"blocked", generation.ErrContentBlocked, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, lib := newLibraryAPI(t)
			lib.requestErr = tt.err
			w := a.do(t, http.MethodPost, "/api/curricula/"+lib.curriculum.ID.String()+"/modules/generate", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetBundle(t *testing.T) {
	t.Parallel()
	a, lib := newLibraryAPI(t)

	w := a.do(t, http.MethodGet, "/api/curricula/"+lib.curriculum.ID.String()+"/bundle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lib.curriculum.ID, decodeBody[bundle.Bundle](t, w).Curriculum.ID)
}
