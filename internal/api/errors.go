package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/docsync"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/session"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/learnflex/learnflex-api/internal/task"
)

// badRequestErrors are domain and input errors whose text is written by us
// and safe to return verbatim.
var badRequestErrors = []error{
	domain.ErrInvalidEmail,
	domain.ErrEmptyEmail,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrEmptyPassword,
	domain.ErrInvalidUsername,
	domain.ErrEmptyTitle,
	domain.ErrEmptyContent,
	domain.ErrScoreExceedsMax,
	domain.ErrNegativeScore,
	domain.ErrAnswerCount,
	domain.ErrAnswerOutOfRange,
	domain.ErrIncompleteAnswers,
	service.ErrInvalidTarget,
	service.ErrUnsupportedContentType,
	service.ErrInvalidPhotoKey,
	service.ErrPhotoNotUploaded,
	task.ErrUnknownParent,
	session.ErrUnknownAction,
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, session.ErrNotOwned),
		errors.Is(err, docsync.ErrForeignPath):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrProfileExists),
		errors.Is(err, service.ErrProfileRequired),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, session.ErrAlreadySubmitted),
		errors.Is(err, docsync.ErrSyncInProgress),
		store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, store.ErrInvalidPath),
		errors.Is(err, generation.ErrInvalidRequest),
		errors.Is(err, docsync.ErrInvalidOperation),
		isBadRequest(err):
		return http.StatusBadRequest

	// Generation errors
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, service.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned), errors.Is(err, session.ErrNotOwned):
		return "You do not have access to this resource"
	case errors.Is(err, docsync.ErrForeignPath):
		return "Sync operations may only touch your own documents"

	// Not found errors
	case errors.Is(err, session.ErrNotFound):
		return "Session not found or expired"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"
	case errors.Is(err, store.ErrCurriculumNotFound):
		return "Curriculum not found"
	case errors.Is(err, store.ErrModuleNotFound):
		return "Module not found"
	case errors.Is(err, store.ErrLessonNotFound):
		return "Lesson not found"
	case errors.Is(err, store.ErrSectionNotFound):
		return "Section not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, service.ErrNotFound), store.IsNotFoundError(err):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, service.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, service.ErrProfileExists):
		return "Profile already exists"
	case errors.Is(err, service.ErrProfileRequired):
		return "Create a profile first"
	case errors.Is(err, docsync.ErrSyncInProgress):
		return "A sync is already in progress"
	case errors.Is(err, session.ErrAlreadySubmitted):
		return "Already submitted"
	case errors.Is(err, service.ErrConflict), store.IsDuplicateError(err):
		return "Resource already exists"

	// Bad request errors
	case errors.As(err, &validationErr):
		return "Invalid " + validationErr.Error()
	case isBadRequest(err):
		return sentinelText(err)
	case errors.Is(err, docsync.ErrInvalidOperation):
		return "Invalid sync operation"
	case errors.Is(err, store.ErrInvalidPath):
		return "Invalid document path"
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID), errors.Is(err, generation.ErrInvalidRequest):
		return "Invalid request data"

	// Generation and dependency errors
	case errors.Is(err, generation.ErrContentBlocked):
		return "The request was blocked by content filters"
	case errors.Is(err, generation.ErrTransientFailure):
		return "Content generation is temporarily unavailable, please retry"
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrGenerationFailed):
		return "Content generation failed"
	case errors.Is(err, task.ErrQueueFull):
		return "Too many generation requests, please retry shortly"
	case errors.Is(err, service.ErrUploadsDisabled):
		return "Photo uploads are not available"

	default:
		return "An unexpected error occurred"
	}
}

// sentinelText returns the text of the first bad-request sentinel in err's
// chain, without any wrapping context.
func sentinelText(err error) string {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			msg := target.Error()
			return strings.ToUpper(msg[:1]) + msg[1:]
		}
	}
	return "Invalid request"
}

// HandleAPIError writes the status and safe message for err, logging the
// redacted details. fallback replaces the message of unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	case "dive":
		return "invalid item"
	default:
		return "validation failed"
	}
}
