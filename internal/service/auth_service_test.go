package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/mocks"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

type authFixture struct {
	svc     *service.AuthService
	users   *mocks.MockUserStore
	space   *mocks.DocumentSpace
	jwt     *mocks.MockJWTService
	bundles *recordingInvalidator
}

func newAuthFixture(t *testing.T) (*authFixture, func(commits int), func()) {
	t.Helper()
	db, mock := newTxDB(t)
	f := &authFixture{
		users:   mocks.NewMockUserStore(),
		space:   mocks.NewDocumentSpace(),
		jwt:     &mocks.MockJWTService{Token: "access", RefreshToken: "refresh", Lifetime: 15 * time.Minute},
		bundles: &recordingInvalidator{},
	}
	f.svc = service.NewAuthService(db, f.users, mocks.NewMemoryDocumentWriter(f.space),
		f.jwt, auth.NewBcryptVerifier(), f.bundles, discardLogger())
	return f, func(n int) { expectCommit(mock, n) }, func() { expectRollback(mock) }
}

func (f *authFixture) register(t *testing.T, commit func(int), email string) *service.AuthResult {
	t.Helper()
	commit(1)
	res, err := f.svc.Register(context.Background(), email, testPassword)
	require.NoError(t, err)
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	f, commit, rollback := newAuthFixture(t)
	ctx := context.Background()

	res := f.register(t, commit, " Learner@Example.com ")
	assert.NotEqual(t, uuid.Nil, res.UserID)
	assert.Equal(t, "access", res.AccessToken)
	assert.Equal(t, "refresh", res.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), res.ExpiresAt, time.Minute)

	rollback()
	_, err := f.svc.Register(ctx, "learner@example.com", testPassword)
	assert.ErrorIs(t, err, service.ErrEmailExists)

	login, err := f.svc.Login(ctx, "LEARNER@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, login.UserID)
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()
	f, _, _ := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "not-an-email", testPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.svc.Register(context.Background(), "a@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	assert.Zero(t, f.users.Count())
}

func TestLoginHidesWhichCredentialWasWrong(t *testing.T) {
	t.Parallel()
	f, commit, _ := newAuthFixture(t)
	f.register(t, commit, "learner@example.com")

	_, err := f.svc.Login(context.Background(), "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "learner@example.com", "wrong-password-here")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	f, commit, _ := newAuthFixture(t)
	res := f.register(t, commit, "learner@example.com")

	f.jwt.Claims = &auth.Claims{UserID: res.UserID, TokenType: auth.TokenTypeRefresh}
	pair, err := f.svc.Refresh(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)

	f.jwt.Claims = &auth.Claims{UserID: uuid.New(), TokenType: auth.TokenTypeRefresh}
	_, err = f.svc.Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	f.jwt.ValidateErr = auth.ErrExpiredRefreshToken
	_, err = f.svc.Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, auth.ErrExpiredRefreshToken)
}

func TestChangeEmailUpdatesProfileCopy(t *testing.T) {
	t.Parallel()
	f, commit, rollback := newAuthFixture(t)
	ctx := context.Background()
	res := f.register(t, commit, "old@example.com")

	profile, err := domain.NewProfile(res.UserID, "learner", "old@example.com", testPrefs)
	require.NoError(t, err)
	require.NoError(t, mocks.NewMemoryRepository[domain.Profile](f.space).Insert(ctx, store.ProfilePath(res.UserID), *profile))

	rollback()
	err = f.svc.ChangeEmail(ctx, res.UserID, "wrong-password-here", "new@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	commit(1)
	require.NoError(t, f.svc.ChangeEmail(ctx, res.UserID, testPassword, "New@Example.com"))

	user, err := f.users.GetByID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)

	raw, ok := f.space.Raw(store.ProfilePath(res.UserID))
	require.True(t, ok)
	var stored domain.Profile
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Equal(t, "learner", stored.Username)
}

func TestChangeEmailWithoutProfile(t *testing.T) {
	t.Parallel()
	f, commit, _ := newAuthFixture(t)
	res := f.register(t, commit, "old@example.com")

	commit(1)
	require.NoError(t, f.svc.ChangeEmail(context.Background(), res.UserID, testPassword, "new@example.com"))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	f, commit, _ := newAuthFixture(t)
	ctx := context.Background()
	res := f.register(t, commit, "learner@example.com")

	err := f.svc.ChangePassword(ctx, res.UserID, testPassword, "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	commit(1)
	require.NoError(t, f.svc.ChangePassword(ctx, res.UserID, testPassword, "a-much-better-passphrase"))

	_, err = f.svc.Login(ctx, "learner@example.com", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "learner@example.com", "a-much-better-passphrase")
	assert.NoError(t, err)
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	t.Parallel()
	f, commit, rollback := newAuthFixture(t)
	ctx := context.Background()
	res := f.register(t, commit, "learner@example.com")
	other := uuid.New()

	writer := mocks.NewMemoryDocumentWriter(f.space)
	cid := uuid.New()
	require.NoError(t, writer.Set(ctx, store.ProfilePath(res.UserID), json.RawMessage(`{"username":"learner"}`)))
	require.NoError(t, writer.Set(ctx, store.CurriculumPath(res.UserID, cid), json.RawMessage(`{"title":"Go"}`)))
	require.NoError(t, writer.Set(ctx, store.ModulePath(res.UserID, cid, uuid.New()), json.RawMessage(`{"title":"Syntax"}`)))
	require.NoError(t, writer.Set(ctx, store.ProfilePath(other), json.RawMessage(`{"username":"other"}`)))

	rollback()
	err := f.svc.DeleteAccount(ctx, res.UserID, "wrong-password-here")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Len(t, f.space.Paths(), 4)

	commit(1)
	require.NoError(t, f.svc.DeleteAccount(ctx, res.UserID, testPassword))
	assert.Equal(t, []string{store.ProfilePath(other)}, f.space.Paths())
	assert.Zero(t, f.users.Count())
	assert.Equal(t, 1, f.bundles.users)
}

func TestDeleteAccountRollsBackOnDocumentFailure(t *testing.T) {
	t.Parallel()
	db, mock := newTxDB(t)
	users := mocks.NewMockUserStore()
	space := mocks.NewDocumentSpace()
	writer := mocks.NewMemoryDocumentWriter(space)
	svc := service.NewAuthService(db, users, writer, &mocks.MockJWTService{}, auth.NewBcryptVerifier(), nil, discardLogger())

	expectCommit(mock, 1)
	res, err := svc.Register(context.Background(), "learner@example.com", testPassword)
	require.NoError(t, err)

	writer.ErrOn["DeleteTree"] = errors.New("disk on fire")
	expectRollback(mock)
	err = svc.DeleteAccount(context.Background(), res.UserID, testPassword)
	require.Error(t, err)
	assert.Equal(t, 1, users.Count())
}
