package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/mocks"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type seededLibrary struct {
	repos      service.Repositories
	userID     uuid.UUID
	goCourse   domain.Curriculum
	rustCourse domain.Curriculum
}

// seedLibrary stores a profile and two active curricula. "Go" has two
// modules, one passed; "Rust" has one failed module and was updated last.
func seedLibrary(t *testing.T, withProfile bool) *seededLibrary {
	t.Helper()
	ctx := context.Background()
	s := &seededLibrary{repos: newRepositories(mocks.NewDocumentSpace()), userID: uuid.New()}

	if withProfile {
		p, err := domain.NewProfile(s.userID, "learner", "learner@example.com", testPrefs)
		require.NoError(t, err)
		require.NoError(t, s.repos.Profiles.Insert(ctx, store.ProfilePath(s.userID), *p))
	}

	add := func(title string, scores [][2]int, updated time.Time) domain.Curriculum {
		titles := make([]string, len(scores))
		for i := range scores {
			titles[i] = title + " module"
		}
		c, err := domain.NewCurriculum(title, "", titles, domain.CurriculumTypeCourse)
		require.NoError(t, err)
		c.Slug = title
		c.Status = domain.CurriculumStatusActive
		c.UpdatedAt = updated
		require.NoError(t, s.repos.Curricula.Insert(ctx, store.CurriculumPath(s.userID, c.ID), *c))
		for i, sc := range scores {
			m, err := domain.NewModule(c.ID, titles[i], "", []string{"x"}, i)
			require.NoError(t, err)
			m.Score = domain.Score{QuizScore: sc[0], QuizScoreMax: sc[1]}
			require.NoError(t, s.repos.Modules.Insert(ctx, store.ModulePath(s.userID, c.ID, m.ID), *m))
		}
		return *c
	}
	now := time.Now().UTC()
	s.goCourse = add("Go", [][2]int{{4, 5}, {0, 0}}, now.Add(-time.Hour))
	s.rustCourse = add("Rust", [][2]int{{1, 5}}, now)
	return s
}

func TestDashboardAggregatesProgress(t *testing.T) {
	t.Parallel()
	lib := seedLibrary(t, true)
	svc := service.NewDashboardService(lib.repos, 0.7, discardLogger())

	d, err := svc.Dashboard(context.Background(), lib.userID)
	require.NoError(t, err)

	assert.Equal(t, "learner", d.Profile.Username)
	assert.Equal(t, 2, d.CurriculaCount)
	assert.Equal(t, 3, d.ModulesCount)
	assert.Equal(t, 1, d.CompletedModules)
	assert.InDelta(t, 0.5, d.AverageQuizRatio, 0.001)

	require.Len(t, d.Curricula, 2)
	assert.Equal(t, lib.goCourse.ID, d.Curricula[0].Curriculum.ID)
	assert.Equal(t, 2, d.Curricula[0].ModulesTotal)
	assert.Equal(t, 1, d.Curricula[0].ModulesCompleted)
	assert.Equal(t, 50, d.Curricula[0].Percent)
	assert.Zero(t, d.Curricula[1].Percent)

	require.NotNil(t, d.Current)
	assert.Equal(t, lib.rustCourse.ID, d.Current.ID)
}

func TestDashboardEmptyLibrary(t *testing.T) {
	t.Parallel()
	repos := newRepositories(mocks.NewDocumentSpace())
	uid := uuid.New()
	p, err := domain.NewProfile(uid, "learner", "learner@example.com", testPrefs)
	require.NoError(t, err)
	require.NoError(t, repos.Profiles.Insert(context.Background(), store.ProfilePath(uid), *p))

	d, err := service.NewDashboardService(repos, 0.7, discardLogger()).Dashboard(context.Background(), uid)
	require.NoError(t, err)
	assert.Empty(t, d.Curricula)
	assert.Nil(t, d.Current)
	assert.Zero(t, d.AverageQuizRatio)
}

func TestDashboardErrors(t *testing.T) {
	t.Parallel()
	lib := seedLibrary(t, false)
	svc := service.NewDashboardService(lib.repos, 0.7, discardLogger())

	_, err := svc.Dashboard(context.Background(), lib.userID)
	assert.ErrorIs(t, err, service.ErrProfileRequired)

	lib = seedLibrary(t, true)
	lib.repos.Modules.(*mocks.MemoryRepository[domain.Module]).ErrOn["GetAll"] = errors.New("connection lost")
	_, err = service.NewDashboardService(lib.repos, 0.7, discardLogger()).Dashboard(context.Background(), lib.userID)
	assert.EqualError(t, errors.Unwrap(err), "connection lost")
}

func TestProgressReportWorkbook(t *testing.T) {
	t.Parallel()
	lib := seedLibrary(t, true)
	svc := service.NewDashboardService(lib.repos, 0.7, discardLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.ProgressReport(context.Background(), lib.userID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Curricula", "Modules"}, f.GetSheetList())

	rows, err := f.GetRows("Curricula")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, []string{"Go", "Go", "course", "active", "2", "1", "50"}, rows[1][:7])

	rows, err = f.GetRows("Modules")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Go", "1", "Go module", "4", "5", "0.8", "TRUE"}, rows[1])
	assert.Equal(t, "FALSE", rows[3][6])
}
