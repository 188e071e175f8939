package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
)

// UserStore persists account credentials. Profiles and learning content live
// in the document repositories, keyed by the user's ID.
type UserStore interface {
	// Create saves a new user. If user.Password is set it is hashed first.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail looks the user up by normalized email.
	// Returns ErrUserNotFound if no account uses that email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update writes email and password hash. A non-empty Password is hashed
	// and replaces HashedPassword.
	// Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user permanently. Returns ErrUserNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sql.Tx) UserStore
}
