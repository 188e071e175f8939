package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/store"
)

// Repositories groups the document repositories of the learner hierarchy.
type Repositories struct {
	Profiles  store.Repository[domain.Profile]
	Curricula store.Repository[domain.Curriculum]
	Modules   store.Repository[domain.Module]
	Lessons   store.Repository[domain.Lesson]
	Sections  store.Repository[domain.Section]
}

// WithTx binds every repository to tx.
func (r Repositories) WithTx(tx *sql.Tx) Repositories {
	return Repositories{
		Profiles:  r.Profiles.WithTx(tx),
		Curricula: r.Curricula.WithTx(tx),
		Modules:   r.Modules.WithTx(tx),
		Lessons:   r.Lessons.WithTx(tx),
		Sections:  r.Sections.WithTx(tx),
	}
}

// BundleInvalidator drops cached curriculum bundles after writes.
type BundleInvalidator interface {
	Invalidate(ctx context.Context, userID, curriculumID uuid.UUID) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (noopInvalidator) InvalidateUser(context.Context, uuid.UUID) error        { return nil }

func orNoop(b BundleInvalidator) BundleInvalidator {
	if b == nil {
		return noopInvalidator{}
	}
	return b
}
