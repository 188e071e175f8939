package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/mocks"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizFixture = `{"questions":[
	{"type":"multiple_choice","text":"Which verb is idempotent?","options":["POST","PUT","PATCH"],"answer_index":1},
	{"type":"true_false","text":"GET has a body","answer_index":1,"explanation":"It should not"},
	{"type":"multiple_choice","text":"Broken","options":["only one"],"answer_index":0}
]}`

type quizFixtureState struct {
	svc      *service.QuizService
	gen      *mocks.MockGenerator
	repos    service.Repositories
	bundles  *recordingInvalidator
	commit   func(int)
	rollback func()
	userID   uuid.UUID
	cid      uuid.UUID
	modules  []domain.Module
	lesson   domain.Lesson
	section  domain.Section
}

func newQuizFixture(t *testing.T) *quizFixtureState {
	t.Helper()
	ctx := context.Background()
	db, mock := newTxDB(t)
	space := mocks.NewDocumentSpace()
	f := &quizFixtureState{
		gen: &mocks.MockGenerator{Responses: map[generation.Kind]string{
			generation.KindQuiz: quizFixture,
		}},
		repos:    newRepositories(space),
		bundles:  &recordingInvalidator{},
		commit:   func(n int) { expectCommit(mock, n) },
		rollback: func() { expectRollback(mock) },
		userID:   uuid.New(),
	}
	f.svc = service.NewQuizService(db, f.repos, f.gen, 0, f.bundles, discardLogger())

	p, err := domain.NewProfile(f.userID, "learner", "learner@example.com", testPrefs)
	require.NoError(t, err)
	require.NoError(t, f.repos.Profiles.Insert(ctx, store.ProfilePath(f.userID), *p))

	c, err := domain.NewCurriculum("Go", "", []string{"HTTP", "Routing"}, domain.CurriculumTypeCourse)
	require.NoError(t, err)
	c.Status = domain.CurriculumStatusActive
	f.cid = c.ID
	require.NoError(t, f.repos.Curricula.Insert(ctx, store.CurriculumPath(f.userID, c.ID), *c))

	for i, title := range c.Content {
		m, err := domain.NewModule(c.ID, title, "", []string{"Basics"}, i)
		require.NoError(t, err)
		require.NoError(t, f.repos.Modules.Insert(ctx, store.ModulePath(f.userID, c.ID, m.ID), *m))
		f.modules = append(f.modules, *m)
	}
	l, err := domain.NewLesson(f.modules[0].ID, "Basics", "", []string{"Verbs"}, 0)
	require.NoError(t, err)
	f.lesson = *l
	require.NoError(t, f.repos.Lessons.Insert(ctx, f.lessonPath(), *l))
	sec, err := domain.NewSection(l.ID, "Verbs", "", "GET, PUT, POST", 0)
	require.NoError(t, err)
	f.section = *sec
	require.NoError(t, f.repos.Sections.Insert(ctx, f.sectionPath(), *sec))
	return f
}

func (f *quizFixtureState) modulePath(i int) string {
	return store.ModulePath(f.userID, f.cid, f.modules[i].ID)
}

func (f *quizFixtureState) lessonPath() string {
	return store.LessonPath(f.userID, f.cid, f.modules[0].ID, f.lesson.ID)
}

func (f *quizFixtureState) sectionPath() string {
	return store.SectionPath(f.userID, f.cid, f.modules[0].ID, f.lesson.ID, f.section.ID)
}

func TestGenerateQuizForEachTarget(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)

	for _, path := range []string{f.modulePath(0), f.lessonPath(), f.sectionPath()} {
		quiz, err := f.svc.GenerateQuiz(context.Background(), f.userID, path)
		require.NoError(t, err, path)
		assert.Equal(t, path, quiz.TargetPath)
		require.Len(t, quiz.Questions, 2, "malformed questions are dropped")
		assert.Equal(t, domain.TrueFalseOptions, quiz.Questions[1].Options)
	}

	reqs := f.gen.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "HTTP", reqs[0].Title)
	assert.Equal(t, []string{"GET, PUT, POST"}, reqs[2].Context)
}

func TestGenerateQuizRejectsBadTargets(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)
	ctx := context.Background()

	_, err := f.svc.GenerateQuiz(ctx, f.userID, store.CurriculumPath(f.userID, f.cid))
	assert.ErrorIs(t, err, service.ErrInvalidTarget)

	_, err = f.svc.GenerateQuiz(ctx, f.userID, "not/a/path/")
	assert.ErrorIs(t, err, service.ErrInvalidTarget)

	_, err = f.svc.GenerateQuiz(ctx, uuid.New(), f.modulePath(0))
	assert.ErrorIs(t, err, service.ErrNotOwned)

	_, err = f.svc.GenerateQuiz(ctx, f.userID, store.ModulePath(f.userID, f.cid, uuid.New()))
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, f.gen.Requests())
}

func TestGenerateQuizWithNoUsableQuestions(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)
	f.gen.Responses[generation.KindQuiz] = `{"questions":[{"type":"multiple_choice","text":"x","options":["a"],"answer_index":0}]}`

	_, err := f.svc.GenerateQuiz(context.Background(), f.userID, f.sectionPath())
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGrade(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)
	quiz, err := f.svc.GenerateQuiz(context.Background(), f.userID, f.sectionPath())
	require.NoError(t, err)

	score, max, err := f.svc.Grade(quiz, []int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, score)
	assert.Equal(t, 2, max)
	assert.LessOrEqual(t, score, max)

	_, _, err = f.svc.Grade(quiz, []int{1, domain.Unanswered})
	assert.ErrorIs(t, err, domain.ErrIncompleteAnswers)
	_, _, err = f.svc.Grade(quiz, []int{1})
	assert.ErrorIs(t, err, domain.ErrAnswerCount)
	_, _, err = f.svc.Grade(quiz, []int{7, 0})
	assert.ErrorIs(t, err, domain.ErrAnswerOutOfRange)
}

func TestRecordScoreRejectsInvalidScores(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)

	_, err := f.svc.RecordScore(context.Background(), f.userID, f.sectionPath(), 6, 5)
	assert.ErrorIs(t, err, domain.ErrScoreExceedsMax)
	_, err = f.svc.RecordScore(context.Background(), f.userID, f.sectionPath(), -1, 5)
	assert.ErrorIs(t, err, domain.ErrNegativeScore)
}

func TestRecordScoreOnLessonAndSection(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)
	ctx := context.Background()

	f.commit(2)
	res, err := f.svc.RecordScore(ctx, f.userID, f.sectionPath(), 2, 5)
	require.NoError(t, err)
	assert.False(t, res.Completed)

	res, err = f.svc.RecordScore(ctx, f.userID, f.lessonPath(), 4, 5)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.False(t, res.CurriculumCompleted)

	sec, err := f.repos.Sections.Get(ctx, f.sectionPath())
	require.NoError(t, err)
	assert.Equal(t, domain.Score{QuizScore: 2, QuizScoreMax: 5}, sec.Score)
	assert.Len(t, f.bundles.curricula, 2)
}

func TestRecordScoreCompletesCurriculum(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)
	ctx := context.Background()

	f.commit(3)
	res, err := f.svc.RecordScore(ctx, f.userID, f.modulePath(0), 5, 5)
	require.NoError(t, err)
	assert.False(t, res.CurriculumCompleted)

	res, err = f.svc.RecordScore(ctx, f.userID, f.modulePath(1), 3, 5)
	require.NoError(t, err)
	assert.False(t, res.Completed, "0.6 is below the passing ratio")
	assert.False(t, res.CurriculumCompleted)

	res, err = f.svc.RecordScore(ctx, f.userID, f.modulePath(1), 4, 5)
	require.NoError(t, err)
	assert.True(t, res.CurriculumCompleted)

	c, err := f.repos.Curricula.Get(ctx, store.CurriculumPath(f.userID, f.cid))
	require.NoError(t, err)
	assert.Equal(t, domain.CurriculumStatusCompleted, c.Status)
}

func TestRecordScoreMissingTarget(t *testing.T) {
	t.Parallel()
	f := newQuizFixture(t)

	f.rollback()
	_, err := f.svc.RecordScore(context.Background(), f.userID, store.ModulePath(f.userID, f.cid, uuid.New()), 1, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, service.DefaultPassingRatio, f.svc.PassingRatio())
}
