package service

import (
	"errors"
	"testing"

	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "auth",
			op:       "register",
			err:      errors.New("database connection failed"),
			expected: "auth service register operation failed: database connection failed",
		},
		{
			name:     "without underlying error",
			service:  "library",
			op:       "delete_curriculum",
			expected: "library service delete_curriculum operation failed",
		},
		{
			name:     "with sentinel error",
			service:  "quiz",
			op:       "generate",
			err:      ErrNotOwned,
			expected: "quiz service generate operation failed: resource is owned by another user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceErr := &ServiceError{Service: tt.service, Op: tt.op, Err: tt.err}
			assert.Equal(t, tt.expected, serviceErr.Error())
			assert.Equal(t, tt.err, serviceErr.Unwrap())
		})
	}
}

func TestNewServiceErrorMapsStoreSentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		wants []error
	}{
		{"curriculum not found", store.ErrCurriculumNotFound, []error{ErrNotFound, store.ErrCurriculumNotFound, store.ErrNotFound}},
		{"email exists", store.ErrEmailExists, []error{ErrEmailExists, store.ErrDuplicate}},
		{"profile exists", store.NewStoreError("profile", "insert", "p", store.ErrProfileExists), []error{ErrProfileExists}},
		{"other duplicate", store.ErrDuplicate, []error{ErrConflict}},
		{"domain validation passes through", domain.ErrEmptyTitle, []error{domain.ErrEmptyTitle}},
		{"already mapped", ErrNotFound, []error{ErrNotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError("library", "get", tt.err)
			var se *ServiceError
			assert.True(t, errors.As(err, &se))
			for _, want := range tt.wants {
				assert.ErrorIs(t, err, want)
			}
		})
	}

	assert.NoError(t, NewServiceError("x", "y", nil))
}
