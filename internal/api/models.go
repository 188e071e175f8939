package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/docsync"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/session"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for register and login.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    string    `json:"expires_at"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

func newRefreshTokenResponse(p auth.TokenPair) RefreshTokenResponse {
	return RefreshTokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// ChangeEmailRequest changes the sign-in email.
type ChangeEmailRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewEmail        string `json:"new_email"        validate:"required,email"`
}

// ChangePasswordRequest changes the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=12,max=72"`
}

// DeleteAccountRequest confirms account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// CreateProfileRequest creates the learner profile.
type CreateProfileRequest struct {
	Username    string             `json:"username"    validate:"required"`
	Preferences domain.Preferences `json:"preferences"`
}

// UpdateUsernameRequest renames the learner.
type UpdateUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// PhotoUploadRequest asks for a presigned photo upload.
type PhotoUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// ConfirmPhotoRequest records an uploaded photo on the profile.
type ConfirmPhotoRequest struct {
	Key string `json:"key" validate:"required"`
}

// StartQuizRequest starts a quiz on a module, lesson or section.
type StartQuizRequest struct {
	TargetPath string `json:"target_path" validate:"required"`
}

// SessionResponse is a session snapshot with the events drained from it.
type SessionResponse struct {
	ID     uuid.UUID       `json:"id"`
	Kind   string          `json:"kind"`
	State  any             `json:"state"`
	Events []session.Event `json:"events"`
	Error  string          `json:"error,omitempty"`
}

// GenerateCurriculumRequest asks for a curriculum draft.
type GenerateCurriculumRequest struct {
	Goal string `json:"goal" validate:"max=500"`
}

// SaveCurriculumRequest saves a reviewed draft.
type SaveCurriculumRequest struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"       validate:"required"`
	Description string                `json:"description"`
	Content     []string              `json:"content"     validate:"required,min=1,dive,required"`
	Type        domain.CurriculumType `json:"type"`
	ImageURL    string                `json:"image_url"   validate:"omitempty,url"`
}

// TaskAcceptedResponse is returned for asynchronous generation.
type TaskAcceptedResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
}

// SyncRequest is a batch of offline writes.
type SyncRequest struct {
	Operations []docsync.Operation `json:"operations" validate:"required,min=1"`
}

// SyncResponse reports the sync outcome.
type SyncResponse struct {
	Status docsync.Status `json:"status"`
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Checked time.Time         `json:"checked_at"`
}
