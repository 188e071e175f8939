//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/learnflex/learnflex-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("learnflex"),
		tcpostgres.WithUsername("learnflex"),
		tcpostgres.WithPassword("learnflex"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		slog.Error("failed to start postgres container", "error", err)
		os.Exit(1)
	}

	code := func() int {
		defer func() {
			if err := testcontainers.TerminateContainer(ctr); err != nil {
				slog.Error("failed to terminate container", "error", err)
			}
		}()

		dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			slog.Error("failed to get connection string", "error", err)
			return 1
		}
		testDB, err = sql.Open("pgx", dsn)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			return 1
		}
		defer func() { _ = testDB.Close() }()

		if err := Migrate(ctx, testDB, "up", discard()); err != nil {
			slog.Error("failed to migrate", "error", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withTx runs fn in a transaction that is always rolled back.
func withTx(t *testing.T, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := testDB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	fn(tx)
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		uid := uuid.New()
		curricula := NewDocumentStore[domain.Curriculum](tx, discard())
		modules := NewDocumentStore[domain.Module](tx, discard())

		c, err := domain.NewCurriculum("Go", "Learn Go", []string{"Syntax", "Concurrency"}, domain.CurriculumTypeCourse)
		require.NoError(t, err)
		cPath := store.CurriculumPath(uid, c.ID)

		require.NoError(t, curricula.Insert(ctx, cPath, *c))
		assert.ErrorIs(t, curricula.Insert(ctx, cPath, *c), store.ErrDuplicate)

		for i, title := range c.Content {
			m, err := domain.NewModule(c.ID, title, "", []string{"intro"}, i)
			require.NoError(t, err)
			require.NoError(t, modules.Insert(ctx, store.ModulePath(uid, c.ID, m.ID), *m))
			time.Sleep(time.Millisecond)
		}

		got, err := modules.GetAll(ctx, store.ModulesPath(uid, c.ID))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Syntax", got[0].Title)

		c.Status = domain.CurriculumStatusActive
		require.NoError(t, curricula.Update(ctx, cPath, *c))
		loaded, err := curricula.Get(ctx, cPath)
		require.NoError(t, err)
		assert.Equal(t, domain.CurriculumStatusActive, loaded.Status)

		require.NoError(t, curricula.Delete(ctx, cPath))
		_, err = curricula.Get(ctx, cPath)
		assert.ErrorIs(t, err, store.ErrCurriculumNotFound)

		left, err := modules.GetAll(ctx, store.ModulesPath(uid, c.ID))
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestUserStoreLifecycle(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		users := NewPostgresUserStore(tx, 4, discard())

		u, err := domain.NewUser("learner@example.com", "correct-horse-battery")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))
		assert.Empty(t, u.Password)
		assert.NotEmpty(t, u.HashedPassword)

		dup, err := domain.NewUser("Learner@example.com", "correct-horse-battery")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

		byEmail, err := users.GetByEmail(ctx, " LEARNER@example.com ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		require.NoError(t, users.Delete(ctx, u.ID))
		_, err = users.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

type stubTask struct {
	id, user uuid.UUID
}

func (s stubTask) ID() uuid.UUID                 { return s.id }
func (s stubTask) Type() string                  { return task.TaskTypeGenerateModules }
func (s stubTask) UserID() uuid.UUID             { return s.user }
func (s stubTask) Payload() []byte               { return []byte(`{"parent_path":"p/x"}`) }
func (s stubTask) Status() task.TaskStatus       { return task.TaskStatusPending }
func (s stubTask) Execute(context.Context) error { return nil }

func TestTaskStoreLifecycle(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		users := NewPostgresUserStore(tx, 4, discard())
		tasks := NewPostgresTaskStore(tx, discard())

		u, err := domain.NewUser("tasks@example.com", "correct-horse-battery")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))

		st := stubTask{id: uuid.New(), user: u.ID}
		require.NoError(t, tasks.SaveTask(ctx, st))

		pending, err := tasks.GetPendingTasks(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.JSONEq(t, `{"parent_path":"p/x"}`, string(pending[0].Payload))

		require.NoError(t, tasks.UpdateTaskStatus(ctx, st.id, task.TaskStatusFailed, "boom"))
		rec, err := tasks.GetTask(ctx, st.id)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusFailed, rec.Status)
		assert.Equal(t, "boom", rec.ErrorMessage)

		_, err = tasks.GetTask(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
