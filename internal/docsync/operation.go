package docsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/store"
)

// OpType is the kind of a queued write.
type OpType string

const (
	OpSet    OpType = "set"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

var (
	// ErrInvalidOperation is returned for malformed operations.
	ErrInvalidOperation = errors.New("invalid sync operation")

	// ErrForeignPath is returned when an operation targets a path outside
	// the caller's profile.
	ErrForeignPath = errors.New("path is outside the user's profile")
)

// Operation is one offline write. Data is a JSON object for set and update
// and is ignored for delete. A set carries the whole entity; an update
// carries the fields to change. Either way the stored result must be a valid
// entity of the kind the path names.
type Operation struct {
	Type OpType          `json:"type"`
	Path string          `json:"path"`
	Data json.RawMessage `json:"data,omitempty"`

	target target
}

// Validate checks the operation for userID. A set is checked against the
// domain model here; an update can only be checked once it is merged with
// the stored document.
func (op *Operation) Validate(userID uuid.UUID) error {
	p, err := store.ParsePath(op.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	if !p.IsDocument() {
		return fmt.Errorf("%w: %q is a collection path", ErrInvalidOperation, op.Path)
	}
	if !store.IsWithin(op.Path, store.ProfilePath(userID)) {
		return fmt.Errorf("%w: %q", ErrForeignPath, op.Path)
	}
	if op.target, err = resolveTarget(userID, op.Path); err != nil {
		return err
	}

	switch op.Type {
	case OpSet, OpUpdate:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(op.Data, &obj); err != nil || obj == nil {
			return fmt.Errorf("%w: %s of %q needs a JSON object", ErrInvalidOperation, op.Type, op.Path)
		}
		if op.Type == OpSet {
			if op.Data, err = checkDocument(userID, op.Path, op.target, op.Data); err != nil {
				return err
			}
		}
	case OpDelete:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
	}
	return nil
}

// touched returns the curricula an operation affects, and whether it
// affects the profile root and so every curriculum.
func touched(op Operation) (curriculumID uuid.UUID, wholeProfile bool) {
	ref, err := store.ParseContentRef(op.Path)
	if err != nil {
		return uuid.Nil, true
	}
	return ref.CurriculumID, false
}
