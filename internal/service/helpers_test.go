package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/mocks"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock database whose expectations must all be met
// by the end of the test.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock, n int) {
	for range n {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func newRepositories(space *mocks.DocumentSpace) service.Repositories {
	return service.Repositories{
		Profiles:  mocks.NewMemoryRepository[domain.Profile](space),
		Curricula: mocks.NewMemoryRepository[domain.Curriculum](space),
		Modules:   mocks.NewMemoryRepository[domain.Module](space),
		Lessons:   mocks.NewMemoryRepository[domain.Lesson](space),
		Sections:  mocks.NewMemoryRepository[domain.Section](space),
	}
}

var testPrefs = domain.Preferences{
	Field: domain.FieldComputerScience,
	Level: domain.LevelBeginner,
	Goal:  "Build web services",
}

// recordingInvalidator counts invalidations.
type recordingInvalidator struct {
	curricula []string
	users     int
}

func (r *recordingInvalidator) Invalidate(_ context.Context, uid, cid uuid.UUID) error {
	r.curricula = append(r.curricula, uid.String()+"/"+cid.String())
	return nil
}

func (r *recordingInvalidator) InvalidateUser(context.Context, uuid.UUID) error {
	r.users++
	return nil
}
