package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/platform/storage"
	"github.com/learnflex/learnflex-api/internal/store"
)

const profileService = "profile"

// PhotoPresigner issues upload URLs for profile photos.
// *storage.S3Presigner satisfies it.
type PhotoPresigner interface {
	PresignPut(ctx context.Context, key, contentType string) (*storage.PresignedUpload, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ProfileService manages the learner profile stored at profiles/{uid}.
type ProfileService struct {
	db       store.TxBeginner
	profiles store.Repository[domain.Profile]
	users    store.UserStore
	photos   PhotoPresigner
	bundles  BundleInvalidator
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService. photos may be nil, which
// disables photo uploads.
func NewProfileService(
	db store.TxBeginner,
	profiles store.Repository[domain.Profile],
	users store.UserStore,
	photos PhotoPresigner,
	bundles BundleInvalidator,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		db:       db,
		profiles: profiles,
		users:    users,
		photos:   photos,
		bundles:  orNoop(bundles),
		logger:   logger.With("component", "profile_service"),
	}
}

func (s *ProfileService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// CreateProfile creates the profile of an existing user. The email is copied
// from the account.
func (s *ProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, username string, prefs domain.Preferences) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError(profileService, "create", err)
	}
	profile, err := domain.NewProfile(userID, strings.TrimSpace(username), user.Email, prefs)
	if err != nil {
		return nil, NewServiceError(profileService, "create", err)
	}

	if err := s.profiles.Insert(ctx, store.ProfilePath(userID), *profile); err != nil {
		if store.IsDuplicateError(err) {
			return nil, NewServiceError(profileService, "create", fmt.Errorf("%w: %w", ErrProfileExists, err))
		}
		s.log(ctx).Error("failed to create profile", "user_id", userID, "error", err)
		return nil, NewServiceError(profileService, "create", err)
	}
	s.log(ctx).Info("profile created", "user_id", userID)
	return profile, nil
}

// GetProfile returns the caller's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, store.ProfilePath(userID))
	if err != nil {
		return nil, NewServiceError(profileService, "get", err)
	}
	return &profile, nil
}

// mutate loads, changes, validates and stores the profile in one transaction.
func (s *ProfileService) mutate(ctx context.Context, op string, userID uuid.UUID, fn func(*domain.Profile) error) (*domain.Profile, error) {
	var out domain.Profile
	path := store.ProfilePath(userID)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		profiles := s.profiles.WithTx(tx)
		profile, err := profiles.Get(ctx, path)
		if err != nil {
			return err
		}
		if err := fn(&profile); err != nil {
			return err
		}
		if err := profile.Validate(); err != nil {
			return err
		}
		profile.Touch()
		if err := profiles.Update(ctx, path, profile); err != nil {
			return err
		}
		out = profile
		return nil
	})
	if err != nil {
		s.log(ctx).Debug("profile update failed", "op", op, "user_id", userID, "error", err)
		return nil, NewServiceError(profileService, op, err)
	}
	return &out, nil
}

// UpdateUsername changes the username.
func (s *ProfileService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*domain.Profile, error) {
	username = strings.TrimSpace(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, NewServiceError(profileService, "update_username", err)
	}
	return s.mutate(ctx, "update_username", userID, func(p *domain.Profile) error {
		p.Username = username
		return nil
	})
}

// UpdatePreferences replaces field, level and goal.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs domain.Preferences) (*domain.Profile, error) {
	if err := prefs.Validate(); err != nil {
		return nil, NewServiceError(profileService, "update_preferences", err)
	}
	return s.mutate(ctx, "update_preferences", userID, func(p *domain.Profile) error {
		p.Preferences = prefs
		return nil
	})
}

// UpdateLearningStyle stores a questionnaire result.
func (s *ProfileService) UpdateLearningStyle(ctx context.Context, userID uuid.UUID, style domain.LearningStyle) (*domain.Profile, error) {
	if err := style.Validate(); err != nil {
		return nil, NewServiceError(profileService, "update_learning_style", err)
	}
	return s.mutate(ctx, "update_learning_style", userID, func(p *domain.Profile) error {
		p.LearningStyle = style
		return nil
	})
}

// DeleteProfile removes the profile and all learning content beneath it.
// The account itself stays.
func (s *ProfileService) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if err := s.profiles.Delete(ctx, store.ProfilePath(userID)); err != nil {
		return NewServiceError(profileService, "delete", err)
	}
	if err := s.bundles.InvalidateUser(ctx, userID); err != nil {
		s.log(ctx).Warn("failed to invalidate bundles", "user_id", userID, "error", err)
	}
	s.log(ctx).Info("profile deleted", "user_id", userID)
	return nil
}

func photoPrefix(userID uuid.UUID) string {
	return store.ProfilePath(userID) + "/photo-"
}

// RequestPhotoUpload returns a presigned PUT URL for a new profile photo.
func (s *ProfileService) RequestPhotoUpload(ctx context.Context, userID uuid.UUID, contentType string) (*storage.PresignedUpload, error) {
	if s.photos == nil {
		return nil, NewServiceError(profileService, "request_photo_upload", ErrUploadsDisabled)
	}
	ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, NewServiceError(profileService, "request_photo_upload",
			fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType))
	}
	if _, err := s.profiles.Get(ctx, store.ProfilePath(userID)); err != nil {
		return nil, NewServiceError(profileService, "request_photo_upload", err)
	}

	key := fmt.Sprintf("%s%s.%s", photoPrefix(userID), uuid.NewString(), ext)
	upload, err := s.photos.PresignPut(ctx, key, contentType)
	if err != nil {
		s.log(ctx).Error("failed to presign photo upload", "user_id", userID, "error", err)
		return nil, NewServiceError(profileService, "request_photo_upload", err)
	}
	return upload, nil
}

// ConfirmPhoto records the public URL of an uploaded photo. The key must
// come from RequestPhotoUpload for the same user and the object must exist.
func (s *ProfileService) ConfirmPhoto(ctx context.Context, userID uuid.UUID, key string) (*domain.Profile, error) {
	if s.photos == nil {
		return nil, NewServiceError(profileService, "confirm_photo", ErrUploadsDisabled)
	}
	if !storage.OwnsKey(key, photoPrefix(userID)) {
		return nil, NewServiceError(profileService, "confirm_photo", ErrInvalidPhotoKey)
	}
	uploaded, err := s.photos.ObjectExists(ctx, key)
	if err != nil {
		s.log(ctx).Error("failed to check photo upload", "user_id", userID, "error", err)
		return nil, NewServiceError(profileService, "confirm_photo", err)
	}
	if !uploaded {
		return nil, NewServiceError(profileService, "confirm_photo", ErrPhotoNotUploaded)
	}
	url := s.photos.PublicURL(key)
	return s.mutate(ctx, "confirm_photo", userID, func(p *domain.Profile) error {
		p.PhotoURL = url
		return nil
	})
}

// requireProfile loads the profile, mapping a missing one to ErrProfileRequired.
func requireProfile(ctx context.Context, profiles store.Repository[domain.Profile], userID uuid.UUID) (*domain.Profile, error) {
	profile, err := profiles.Get(ctx, store.ProfilePath(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrProfileRequired, err)
		}
		return nil, err
	}
	return &profile, nil
}
