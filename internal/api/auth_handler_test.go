package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/session"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthService struct {
	AuthService
	register       func(email, password string) (*service.AuthResult, error)
	login          func(email, password string) (*service.AuthResult, error)
	refresh        func(token string) (*auth.TokenPair, error)
	changePassword func(userID uuid.UUID, current, next string) error
	deleteAccount  func(userID uuid.UUID, password string) error
}

func (f *fakeAuthService) Register(_ context.Context, email, password string) (*service.AuthResult, error) {
	return f.register(email, password)
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	return f.login(email, password)
}

func (f *fakeAuthService) Refresh(_ context.Context, token string) (*auth.TokenPair, error) {
	return f.refresh(token)
}

func (f *fakeAuthService) ChangePassword(_ context.Context, userID uuid.UUID, current, next string) error {
	return f.changePassword(userID, current, next)
}

func (f *fakeAuthService) DeleteAccount(_ context.Context, userID uuid.UUID, password string) error {
	return f.deleteAccount(userID, password)
}

func tokens(userID uuid.UUID) *service.AuthResult {
	return &service.AuthResult{
		UserID: userID,
		TokenPair: auth.TokenPair{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	newUser := uuid.New()
	a.auth = &fakeAuthService{register: func(email, password string) (*service.AuthResult, error) {
		switch email {
		case "taken@example.com":
			return nil, service.NewServiceError("auth", "Register", store.ErrEmailExists)
		default:
			return tokens(newUser), nil
		}
	}}

	t.Run("created", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/register",
			RegisterRequest{Email: "new@example.com", Password: "correct-horse-battery"}, true)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeBody[AuthResponse](t, w)
		assert.Equal(t, newUser, resp.UserID)
		assert.Equal(t, "access", resp.AccessToken)
		assert.Equal(t, "2030-01-02T03:04:05Z", resp.ExpiresAt)
	})

	t.Run("email taken", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/register",
			RegisterRequest{Email: "taken@example.com", Password: "correct-horse-battery"}, true)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Email already exists", errorBody(t, w).Error)
	})

	t.Run("short password", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/register",
			RegisterRequest{Email: "new@example.com", Password: "short"}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid Password: too short", errorBody(t, w).Error)
	})

	t.Run("unknown fields", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@b.co","password":"x","admin":true}`, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	a.auth = &fakeAuthService{login: func(email, password string) (*service.AuthResult, error) {
		if password != "correct-horse-battery" {
			return nil, service.ErrInvalidCredentials
		}
		return tokens(a.user), nil
	}}

	w := a.do(t, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: "me@example.com", Password: "correct-horse-battery"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, a.user, decodeBody[AuthResponse](t, w).UserID)

	w = a.do(t, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: "me@example.com", Password: "wrong"}, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorBody(t, w).Error)
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	a.auth = &fakeAuthService{refresh: func(token string) (*auth.TokenPair, error) {
		if token != "good" {
			return nil, auth.ErrExpiredRefreshToken
		}
		return &tokens(a.user).TokenPair, nil
	}}

	w := a.do(t, http.MethodPost, "/api/auth/refresh", RefreshTokenRequest{RefreshToken: "good"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refresh", decodeBody[RefreshTokenResponse](t, w).RefreshToken)

	w = a.do(t, http.MethodPost, "/api/auth/refresh", RefreshTokenRequest{RefreshToken: "old"}, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", errorBody(t, w).Error)
}

func TestAccountRoutesRequireAuthentication(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	a.auth = &fakeAuthService{}

	w := a.do(t, http.MethodPut, "/api/account/password",
		ChangePasswordRequest{CurrentPassword: "x", NewPassword: "correct-horse-battery"}, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordAndDeleteAccount(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	var changedFor, deleted uuid.UUID
	a.auth = &fakeAuthService{
		changePassword: func(userID uuid.UUID, current, next string) error {
			if current != "correct-horse-battery" {
				return service.ErrInvalidCredentials
			}
			changedFor = userID
			return nil
		},
		deleteAccount: func(userID uuid.UUID, _ string) error {
			deleted = userID
			return nil
		},
	}

	w := a.do(t, http.MethodPut, "/api/account/password",
		ChangePasswordRequest{CurrentPassword: "correct-horse-battery", NewPassword: "staple-battery-horse"})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, a.user, changedFor)

	w = a.do(t, http.MethodPut, "/api/account/password",
		ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "staple-battery-horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodDelete, "/api/account", DeleteAccountRequest{Password: "correct-horse-battery"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, a.user, deleted)
}

func TestDeleteAccountDropsLiveSessions(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	a.auth = &fakeAuthService{deleteAccount: func(uuid.UUID, string) error { return nil }}

	quiz := &domain.Quiz{Questions: []domain.Question{domain.NewTrueFalseQuestion("q", true, "")}}
	mine := session.NewQuizSession(a.user, quiz, &fakeQuizService{})
	other := session.NewQuizSession(uuid.New(), quiz, &fakeQuizService{})
	a.quizSessions.Add(mine)
	a.quizSessions.Add(other)
	a.styleSessions.Add(session.NewQuestionnaireSession(a.user, nil, &fakeQuestionnaireService{}))

	w := a.do(t, http.MethodDelete, "/api/account", DeleteAccountRequest{Password: "correct-horse-battery"})
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err := a.quizSessions.Get(a.user, mine.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = a.quizSessions.Get(other.Owner, other.ID)
	assert.NoError(t, err)
	assert.Zero(t, a.styleSessions.Len())
}

func TestFailedAccountDeletionKeepsSessions(t *testing.T) {
	t.Parallel()
	a := newTestAPI()
	a.auth = &fakeAuthService{deleteAccount: func(uuid.UUID, string) error { return service.ErrInvalidCredentials }}
	a.quizSessions.Add(session.NewQuizSession(a.user, &domain.Quiz{
		Questions: []domain.Question{domain.NewTrueFalseQuestion("q", true, "")},
	}, &fakeQuizService{}))

	w := a.do(t, http.MethodDelete, "/api/account", DeleteAccountRequest{Password: "wrong-horse-battery"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, a.quizSessions.Len())
}
