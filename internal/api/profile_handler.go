package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/platform/storage"
	"github.com/learnflex/learnflex-api/internal/service"
)

// ProfileService is the profile API used by ProfileHandler.
type ProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, username string, prefs domain.Preferences) (*domain.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*domain.Profile, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs domain.Preferences) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error
	RequestPhotoUpload(ctx context.Context, userID uuid.UUID, contentType string) (*storage.PresignedUpload, error)
	ConfirmPhoto(ctx context.Context, userID uuid.UUID, key string) (*domain.Profile, error)
}

var _ ProfileService = (*service.ProfileService)(nil)

// ProfileHandler serves the learner profile.
type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.With(slog.String("component", "profile_handler")),
	}
}

// CreateProfile handles POST /profile.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.profiles.CreateProfile(r.Context(), userID, req.Username, req.Preferences)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create profile")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, p)
}

// GetProfile handles GET /profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load profile")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}

// DeleteProfile handles DELETE /profile.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.profiles.DeleteProfile(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete profile")
		return
	}
	shared.RespondNoContent(w)
}

// UpdateUsername handles PATCH /profile/username.
func (h *ProfileHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateUsernameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.profiles.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update username")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}

// UpdatePreferences handles PATCH /profile/preferences.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req domain.Preferences
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.profiles.UpdatePreferences(r.Context(), userID, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update preferences")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}

// RequestPhotoUpload handles POST /profile/photo/upload-url.
func (h *ProfileHandler) RequestPhotoUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	upload, err := h.profiles.RequestPhotoUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to prepare photo upload")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, upload)
}

// ConfirmPhoto handles POST /profile/photo.
func (h *ProfileHandler) ConfirmPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.profiles.ConfirmPhoto(r.Context(), userID, req.Key)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save photo")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}
