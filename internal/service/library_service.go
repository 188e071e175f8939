package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/events"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/learnflex/learnflex-api/internal/task"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const libraryService = "library"

// TaskReader loads background task records. task.TaskStore satisfies it.
type TaskReader interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*task.Record, error)
}

// LibraryService generates and browses curricula, modules, lessons and
// sections.
type LibraryService struct {
	db        store.TxBeginner
	repos     Repositories
	generator generation.Generator
	emitter   events.EventEmitter
	tasks     TaskReader
	bundles   BundleInvalidator
	logger    *slog.Logger
}

var _ task.ContentGenerator = (*LibraryService)(nil)

// NewLibraryService creates a LibraryService. bundles may be nil.
func NewLibraryService(
	db store.TxBeginner,
	repos Repositories,
	generator generation.Generator,
	emitter events.EventEmitter,
	tasks TaskReader,
	bundles BundleInvalidator,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		db:        db,
		repos:     repos,
		generator: generator,
		emitter:   emitter,
		tasks:     tasks,
		bundles:   orNoop(bundles),
		logger:    logger.With("component", "library_service"),
	}
}

func (s *LibraryService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func (s *LibraryService) invalidate(ctx context.Context, userID, curriculumID uuid.UUID) {
	if err := s.bundles.Invalidate(ctx, userID, curriculumID); err != nil {
		s.log(ctx).Warn("failed to invalidate bundle",
			"user_id", userID, "curriculum_id", curriculumID, "error", err)
	}
}

var titleCaser = cases.Title(language.English)

// normalizeTitle collapses whitespace and title-cases s.
func normalizeTitle(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

func normalizeTitles(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalizeTitle(s)
	}
	return out
}

// GenerateCurriculum drafts a curriculum from the learner's preferences and
// learning style. A non-empty goal overrides the stored one. The draft is
// not saved.
func (s *LibraryService) GenerateCurriculum(ctx context.Context, userID uuid.UUID, goal string) (*domain.Curriculum, error) {
	profile, err := requireProfile(ctx, s.repos.Profiles, userID)
	if err != nil {
		return nil, NewServiceError(libraryService, "generate_curriculum", err)
	}
	prefs := profile.Preferences
	if goal = strings.TrimSpace(goal); goal != "" {
		prefs.Goal = goal
	}

	resp, err := s.generator.Generate(ctx, generation.Request{
		Kind:          generation.KindCurriculum,
		Preferences:   prefs,
		LearningStyle: profile.LearningStyle,
	})
	if err != nil {
		s.log(ctx).Error("curriculum generation failed", "user_id", userID, "error", err)
		return nil, NewServiceError(libraryService, "generate_curriculum", err)
	}

	var draft generation.CurriculumDraft
	if err := resp.Decode(&draft); err != nil {
		return nil, NewServiceError(libraryService, "generate_curriculum", err)
	}
	kind := domain.CurriculumTypeCourse
	if len(draft.Content) == 1 {
		kind = domain.CurriculumTypeLesson
	}
	c, err := domain.NewCurriculum(normalizeTitle(draft.Title), draft.Description, normalizeTitles(draft.Content), kind)
	if err != nil {
		return nil, NewServiceError(libraryService, "generate_curriculum",
			fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err))
	}
	c.Slug = slug.Make(c.Title)
	return c, nil
}

// SaveCurriculum stores a draft as an active curriculum.
func (s *LibraryService) SaveCurriculum(ctx context.Context, userID uuid.UUID, c domain.Curriculum) (*domain.Curriculum, error) {
	if _, err := requireProfile(ctx, s.repos.Profiles, userID); err != nil {
		return nil, NewServiceError(libraryService, "save_curriculum", err)
	}

	now := timeNow()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Type == "" {
		c.Type = domain.CurriculumTypeCourse
	}
	c.Title = normalizeTitle(c.Title)
	c.Content = normalizeTitles(c.Content)
	if c.Slug == "" {
		c.Slug = slug.Make(c.Title)
	}
	if c.Status == "" || c.Status == domain.CurriculumStatusDraft {
		c.Status = domain.CurriculumStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := c.Validate(); err != nil {
		return nil, NewServiceError(libraryService, "save_curriculum", err)
	}
	if err := s.repos.Curricula.Insert(ctx, store.CurriculumPath(userID, c.ID), c); err != nil {
		return nil, NewServiceError(libraryService, "save_curriculum", err)
	}
	s.log(ctx).Info("curriculum saved", "user_id", userID, "curriculum_id", c.ID, "slug", c.Slug)
	return &c, nil
}

// ListCurricula returns the learner's curricula, oldest first.
func (s *LibraryService) ListCurricula(ctx context.Context, userID uuid.UUID) ([]domain.Curriculum, error) {
	out, err := s.repos.Curricula.GetAll(ctx, store.CurriculaPath(userID))
	if err != nil {
		return nil, NewServiceError(libraryService, "list_curricula", err)
	}
	return out, nil
}

// GetCurriculum returns one curriculum.
func (s *LibraryService) GetCurriculum(ctx context.Context, userID, curriculumID uuid.UUID) (*domain.Curriculum, error) {
	c, err := s.repos.Curricula.Get(ctx, store.CurriculumPath(userID, curriculumID))
	if err != nil {
		return nil, NewServiceError(libraryService, "get_curriculum", err)
	}
	return &c, nil
}

// DeleteCurriculum removes a curriculum with its modules, lessons and sections.
func (s *LibraryService) DeleteCurriculum(ctx context.Context, userID, curriculumID uuid.UUID) error {
	if err := s.repos.Curricula.Delete(ctx, store.CurriculumPath(userID, curriculumID)); err != nil {
		return NewServiceError(libraryService, "delete_curriculum", err)
	}
	s.invalidate(ctx, userID, curriculumID)
	s.log(ctx).Info("curriculum deleted", "user_id", userID, "curriculum_id", curriculumID)
	return nil
}

// ListModules returns the modules of a curriculum in creation order.
func (s *LibraryService) ListModules(ctx context.Context, userID, curriculumID uuid.UUID) ([]domain.Module, error) {
	out, err := s.repos.Modules.GetAll(ctx, store.ModulesPath(userID, curriculumID))
	if err != nil {
		return nil, NewServiceError(libraryService, "list_modules", err)
	}
	return out, nil
}

// GetModule returns one module.
func (s *LibraryService) GetModule(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) (*domain.Module, error) {
	m, err := s.repos.Modules.Get(ctx, store.ModulePath(userID, curriculumID, moduleID))
	if err != nil {
		return nil, NewServiceError(libraryService, "get_module", err)
	}
	return &m, nil
}

// ListLessons returns the lessons of a module.
func (s *LibraryService) ListLessons(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) ([]domain.Lesson, error) {
	out, err := s.repos.Lessons.GetAll(ctx, store.LessonsPath(userID, curriculumID, moduleID))
	if err != nil {
		return nil, NewServiceError(libraryService, "list_lessons", err)
	}
	return out, nil
}

// GetLesson returns one lesson.
func (s *LibraryService) GetLesson(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) (*domain.Lesson, error) {
	l, err := s.repos.Lessons.Get(ctx, store.LessonPath(userID, curriculumID, moduleID, lessonID))
	if err != nil {
		return nil, NewServiceError(libraryService, "get_lesson", err)
	}
	return &l, nil
}

// ListSections returns the sections of a lesson.
func (s *LibraryService) ListSections(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) ([]domain.Section, error) {
	out, err := s.repos.Sections.GetAll(ctx, store.SectionsPath(userID, curriculumID, moduleID, lessonID))
	if err != nil {
		return nil, NewServiceError(libraryService, "list_sections", err)
	}
	return out, nil
}

// GetSection returns one section.
func (s *LibraryService) GetSection(ctx context.Context, userID, curriculumID, moduleID, lessonID, sectionID uuid.UUID) (*domain.Section, error) {
	sec, err := s.repos.Sections.Get(ctx, store.SectionPath(userID, curriculumID, moduleID, lessonID, sectionID))
	if err != nil {
		return nil, NewServiceError(libraryService, "get_section", err)
	}
	return &sec, nil
}

// request checks that parentPath exists and emits a generation event. The
// event ID becomes the task ID.
func (s *LibraryService) request(ctx context.Context, op, taskType string, userID uuid.UUID, parentPath string, exists func(context.Context) error) (uuid.UUID, error) {
	if err := exists(ctx); err != nil {
		return uuid.Nil, NewServiceError(libraryService, op, err)
	}
	event, err := events.NewTaskRequestEvent(taskType, task.ContentPayload{UserID: userID, ParentPath: parentPath})
	if err != nil {
		return uuid.Nil, NewServiceError(libraryService, op, err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Error("failed to emit generation request", "task_type", taskType, "error", err)
		return uuid.Nil, NewServiceError(libraryService, op, err)
	}
	s.log(ctx).Info("generation requested", "task_id", event.ID, "task_type", taskType, "parent_path", parentPath)
	return event.ID, nil
}

// RequestModules queues generation of the curriculum's modules and returns
// the task ID.
func (s *LibraryService) RequestModules(ctx context.Context, userID, curriculumID uuid.UUID) (uuid.UUID, error) {
	return s.request(ctx, "request_modules", task.TaskTypeGenerateModules, userID,
		store.CurriculumPath(userID, curriculumID), func(ctx context.Context) error {
			_, err := s.repos.Curricula.Get(ctx, store.CurriculumPath(userID, curriculumID))
			return err
		})
}

// RequestLessons queues generation of a module's lessons.
func (s *LibraryService) RequestLessons(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) (uuid.UUID, error) {
	path := store.ModulePath(userID, curriculumID, moduleID)
	return s.request(ctx, "request_lessons", task.TaskTypeGenerateLessons, userID, path,
		func(ctx context.Context) error {
			_, err := s.repos.Modules.Get(ctx, path)
			return err
		})
}

// RequestSections queues generation of a lesson's sections.
func (s *LibraryService) RequestSections(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) (uuid.UUID, error) {
	path := store.LessonPath(userID, curriculumID, moduleID, lessonID)
	return s.request(ctx, "request_sections", task.TaskTypeGenerateSections, userID, path,
		func(ctx context.Context) error {
			_, err := s.repos.Lessons.Get(ctx, path)
			return err
		})
}

// GetTask returns a task owned by userID.
func (s *LibraryService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Record, error) {
	rec, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError(libraryService, "get_task", err)
	}
	if rec.UserID != userID {
		return nil, NewServiceError(libraryService, "get_task", ErrNotOwned)
	}
	return rec, nil
}

// GenerateChildren implements task.ContentGenerator. parentPath names a
// curriculum, module or lesson owned by userID, and must be the parent kind
// that taskType generates children for.
func (s *LibraryService) GenerateChildren(ctx context.Context, userID uuid.UUID, taskType, parentPath string) (int, error) {
	ref, err := store.ParseContentRef(parentPath)
	if err != nil {
		return 0, err
	}
	if ref.UserID != userID {
		return 0, ErrNotOwned
	}
	switch {
	case taskType == task.TaskTypeGenerateModules && ref.Kind() == store.CollectionCurricula:
		return s.generateModules(ctx, userID, ref.CurriculumID)
	case taskType == task.TaskTypeGenerateLessons && ref.Kind() == store.CollectionModules:
		return s.generateLessons(ctx, userID, ref.CurriculumID, ref.ModuleID)
	case taskType == task.TaskTypeGenerateSections && ref.Kind() == store.CollectionLessons:
		return s.generateSections(ctx, userID, ref.CurriculumID, ref.ModuleID, ref.LessonID)
	}
	return 0, fmt.Errorf("%w: %s for %s", task.ErrUnknownParent, taskType, parentPath)
}

// childRequest builds the generation request for the children of a parent.
func (s *LibraryService) childRequest(ctx context.Context, kind generation.Kind, userID uuid.UUID, title, description string, outline []string) (generation.Request, error) {
	profile, err := requireProfile(ctx, s.repos.Profiles, userID)
	if err != nil {
		return generation.Request{}, err
	}
	return generation.Request{
		Kind:          kind,
		Preferences:   profile.Preferences,
		LearningStyle: profile.LearningStyle,
		Title:         title,
		Description:   description,
		Context:       outline,
		Count:         len(outline),
	}, nil
}

func (s *LibraryService) generatePayload(ctx context.Context, req generation.Request, v any) error {
	resp, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.log(ctx).Error("content generation failed", "kind", req.Kind, "parent", req.Title, "error", err)
		return err
	}
	return resp.Decode(v)
}

// checkOutline fails when the model returned fewer children than the parent
// outline names.
func checkOutline(got, want int) error {
	if got < want {
		return fmt.Errorf("%w: got %d items for an outline of %d", generation.ErrInvalidResponse, got, want)
	}
	return nil
}

func invalidResponse(err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrEmptyContent) || errors.Is(err, domain.ErrEmptyTitle) {
		return fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	return err
}

// replaceChildren swaps the documents of a collection for docs in one
// transaction.
func replaceChildren[T any](
	ctx context.Context,
	db store.TxBeginner,
	repo store.Repository[T],
	collection string,
	docs []T,
	pathOf func(T) string,
) error {
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.DeleteAll(ctx, collection); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := txRepo.Insert(ctx, pathOf(doc), doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *LibraryService) generateModules(ctx context.Context, userID, curriculumID uuid.UUID) (int, error) {
	c, err := s.repos.Curricula.Get(ctx, store.CurriculumPath(userID, curriculumID))
	if err != nil {
		return 0, err
	}
	req, err := s.childRequest(ctx, generation.KindModule, userID, c.Title, c.Description, c.Content)
	if err != nil {
		return 0, err
	}
	var payload generation.ItemsPayload
	if err := s.generatePayload(ctx, req, &payload); err != nil {
		return 0, err
	}
	if err := checkOutline(len(payload.Items), len(c.Content)); err != nil {
		return 0, err
	}

	modules := make([]domain.Module, 0, len(c.Content))
	for i, title := range c.Content {
		draft := payload.Items[i]
		m, err := domain.NewModule(c.ID, title, draft.Description, normalizeTitles(draft.Content), i)
		if err != nil {
			return 0, invalidResponse(err)
		}
		modules = append(modules, *m)
	}

	err = replaceChildren(ctx, s.db, s.repos.Modules, store.ModulesPath(userID, curriculumID), modules,
		func(m domain.Module) string { return store.ModulePath(userID, curriculumID, m.ID) })
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID, curriculumID)
	return len(modules), nil
}

func (s *LibraryService) generateLessons(ctx context.Context, userID, curriculumID, moduleID uuid.UUID) (int, error) {
	m, err := s.repos.Modules.Get(ctx, store.ModulePath(userID, curriculumID, moduleID))
	if err != nil {
		return 0, err
	}
	req, err := s.childRequest(ctx, generation.KindLesson, userID, m.Title, m.Description, m.Content)
	if err != nil {
		return 0, err
	}
	var payload generation.ItemsPayload
	if err := s.generatePayload(ctx, req, &payload); err != nil {
		return 0, err
	}
	if err := checkOutline(len(payload.Items), len(m.Content)); err != nil {
		return 0, err
	}

	lessons := make([]domain.Lesson, 0, len(m.Content))
	for i, title := range m.Content {
		draft := payload.Items[i]
		l, err := domain.NewLesson(m.ID, title, draft.Description, normalizeTitles(draft.Content), i)
		if err != nil {
			return 0, invalidResponse(err)
		}
		lessons = append(lessons, *l)
	}

	err = replaceChildren(ctx, s.db, s.repos.Lessons, store.LessonsPath(userID, curriculumID, moduleID), lessons,
		func(l domain.Lesson) string { return store.LessonPath(userID, curriculumID, moduleID, l.ID) })
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID, curriculumID)
	return len(lessons), nil
}

func (s *LibraryService) generateSections(ctx context.Context, userID, curriculumID, moduleID, lessonID uuid.UUID) (int, error) {
	l, err := s.repos.Lessons.Get(ctx, store.LessonPath(userID, curriculumID, moduleID, lessonID))
	if err != nil {
		return 0, err
	}
	req, err := s.childRequest(ctx, generation.KindSection, userID, l.Title, l.Description, l.Content)
	if err != nil {
		return 0, err
	}
	var payload generation.SectionsPayload
	if err := s.generatePayload(ctx, req, &payload); err != nil {
		return 0, err
	}
	if err := checkOutline(len(payload.Sections), len(l.Content)); err != nil {
		return 0, err
	}

	sections := make([]domain.Section, 0, len(l.Content))
	for i, title := range l.Content {
		draft := payload.Sections[i]
		sec, err := domain.NewSection(l.ID, title, draft.Description, draft.Content, i)
		if err != nil {
			return 0, invalidResponse(err)
		}
		sections = append(sections, *sec)
	}

	err = replaceChildren(ctx, s.db, s.repos.Sections, store.SectionsPath(userID, curriculumID, moduleID, lessonID), sections,
		func(sec domain.Section) string { return store.SectionPath(userID, curriculumID, moduleID, lessonID, sec.ID) })
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID, curriculumID)
	return len(sections), nil
}
