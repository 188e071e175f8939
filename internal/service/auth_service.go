package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/store"
)

const authService = "auth"

// AuthResult is returned by Register and Login.
type AuthResult struct {
	UserID uuid.UUID `json:"user_id"`
	auth.TokenPair
}

// AuthService handles accounts: registration, login, token refresh,
// credential changes and account deletion.
type AuthService struct {
	db        store.TxBeginner
	users     store.UserStore
	documents store.DocumentWriter
	tokens    auth.JWTService
	passwords auth.PasswordVerifier
	bundles   BundleInvalidator
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. bundles may be nil.
func NewAuthService(
	db store.TxBeginner,
	users store.UserStore,
	documents store.DocumentWriter,
	tokens auth.JWTService,
	passwords auth.PasswordVerifier,
	bundles BundleInvalidator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		db:        db,
		users:     users,
		documents: documents,
		tokens:    tokens,
		passwords: passwords,
		bundles:   orNoop(bundles),
		logger:    logger.With("component", "auth_service"),
	}
}

func (s *AuthService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func (s *AuthService) issue(ctx context.Context, userID uuid.UUID) (*auth.TokenPair, error) {
	access, err := s.tokens.GenerateToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    timeNow().Add(s.tokens.AccessTokenLifetime()),
	}, nil
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, NewServiceError(authService, "register", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.log(ctx).Debug("registration with existing email", "email", user.Email)
		} else {
			s.log(ctx).Error("failed to create user", "error", err, "email", user.Email)
		}
		return nil, NewServiceError(authService, "register", err)
	}

	tokens, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, NewServiceError(authService, "register", err)
	}
	s.log(ctx).Info("user registered", "user_id", user.ID)
	return &AuthResult{UserID: user.ID, TokenPair: *tokens}, nil
}

// Login checks credentials. Unknown emails and wrong passwords both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			s.log(ctx).Debug("login for unknown email")
			return nil, NewServiceError(authService, "login", ErrInvalidCredentials)
		}
		return nil, NewServiceError(authService, "login", err)
	}
	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		s.log(ctx).Debug("login with wrong password", "user_id", user.ID)
		return nil, NewServiceError(authService, "login", ErrInvalidCredentials)
	}

	tokens, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, NewServiceError(authService, "login", err)
	}
	return &AuthResult{UserID: user.ID, TokenPair: *tokens}, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The user
// must still exist.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, NewServiceError(authService, "refresh", err)
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, NewServiceError(authService, "refresh", auth.ErrInvalidRefreshToken)
		}
		return nil, NewServiceError(authService, "refresh", err)
	}
	tokens, err := s.issue(ctx, claims.UserID)
	if err != nil {
		return nil, NewServiceError(authService, "refresh", err)
	}
	return tokens, nil
}

// verified loads the user and checks the current password.
func (s *AuthService) verified(ctx context.Context, users store.UserStore, userID uuid.UUID, password string) (*domain.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangeEmail updates the login email and the profile copy of it.
func (s *AuthService) ChangeEmail(ctx context.Context, userID uuid.UUID, currentPassword, newEmail string) error {
	newEmail = domain.NormalizeEmail(newEmail)
	if err := domain.ValidateEmail(newEmail); err != nil {
		return NewServiceError(authService, "change_email", err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		user, err := s.verified(ctx, users, userID, currentPassword)
		if err != nil {
			return err
		}
		user.Email = newEmail
		if err := users.Update(ctx, user); err != nil {
			return err
		}

		patch, _ := json.Marshal(map[string]any{"email": newEmail, "updated_at": timeNow()})
		err = s.documents.WithTx(tx).Merge(ctx, store.ProfilePath(userID), patch)
		if err != nil && !store.IsNotFoundError(err) {
			return err
		}
		return nil
	})
	if err != nil {
		s.log(ctx).Debug("email change failed", "user_id", userID, "error", err)
		return NewServiceError(authService, "change_email", err)
	}
	s.log(ctx).Info("email changed", "user_id", userID)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return NewServiceError(authService, "change_password", err)
	}
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		user, err := s.verified(ctx, users, userID, currentPassword)
		if err != nil {
			return err
		}
		user.Password = newPassword
		return users.Update(ctx, user)
	})
	if err != nil {
		return NewServiceError(authService, "change_password", err)
	}
	s.log(ctx).Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user and every document under their profile in
// one transaction.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		if _, err := s.verified(ctx, users, userID, password); err != nil {
			return err
		}
		if err := s.documents.WithTx(tx).DeleteTree(ctx, store.ProfilePath(userID)); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
	if err != nil {
		return NewServiceError(authService, "delete_account", err)
	}

	if err := s.bundles.InvalidateUser(ctx, userID); err != nil {
		s.log(ctx).Warn("failed to invalidate bundles", "user_id", userID, "error", err)
	}
	s.log(ctx).Info("account deleted", "user_id", userID)
	return nil
}
