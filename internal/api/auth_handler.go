package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/service/auth"
)

// AuthService is the account API used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	ChangeEmail(ctx context.Context, userID uuid.UUID, currentPassword, newEmail string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error
}

var _ AuthService = (*service.AuthService)(nil)

// OwnedSessions is a session registry that can drop a user's sessions.
type OwnedSessions interface {
	RemoveOwner(owner uuid.UUID)
}

// AuthHandler handles authentication and account requests.
type AuthHandler struct {
	auth     AuthService
	sessions []OwnedSessions
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. The live sessions of a deleted
// account are dropped from every registry in sessions.
func NewAuthHandler(authService AuthService, sessions []OwnedSessions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

func newAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		UserID:       res.UserID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, newAuthResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newAuthResponse(res))
}

// RefreshToken handles POST /auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newRefreshTokenResponse(*pair))
}

// ChangeEmail handles PUT /account/email.
func (h *AuthHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ChangeEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.ChangeEmail(r.Context(), userID, req.CurrentPassword, req.NewEmail); err != nil {
		HandleAPIError(w, r, err, "Failed to change email")
		return
	}
	shared.RespondNoContent(w)
}

// ChangePassword handles PUT /account/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		HandleAPIError(w, r, err, "Failed to change password")
		return
	}
	shared.RespondNoContent(w)
}

// DeleteAccount handles DELETE /account.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req DeleteAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		HandleAPIError(w, r, err, "Failed to delete account")
		return
	}
	for _, reg := range h.sessions {
		reg.RemoveOwner(userID)
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("account deleted", "user_id", userID)
	shared.RespondNoContent(w)
}
