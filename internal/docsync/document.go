package docsync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/store"
)

// kindProfile names the profile root, which has no collection of its own
// below profiles.
const kindProfile = "profile"

// target is the entity an operation path names.
type target struct {
	kind string
	ref  store.ContentRef
}

// resolveTarget maps a document path under the user's profile to the entity
// stored there. Paths into unknown collections are rejected.
func resolveTarget(userID uuid.UUID, path string) (target, error) {
	if path == store.ProfilePath(userID) {
		return target{kind: kindProfile}, nil
	}
	ref, err := store.ParseContentRef(path)
	if err != nil {
		return target{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return target{kind: ref.Kind(), ref: ref}, nil
}

// checkDocument decodes data as the entity at t, checks that its IDs agree
// with the path and that it passes domain validation, and returns its
// canonical encoding.
func checkDocument(userID uuid.UUID, path string, t target, data []byte) (json.RawMessage, error) {
	var (
		doc      interface{ Validate() error }
		idsMatch func() bool
	)
	switch t.kind {
	case kindProfile:
		p := &domain.Profile{}
		doc, idsMatch = p, func() bool { return p.ID == userID }
	case store.CollectionCurricula:
		c := &domain.Curriculum{}
		doc, idsMatch = c, func() bool { return c.ID == t.ref.CurriculumID }
	case store.CollectionModules:
		m := &domain.Module{}
		doc, idsMatch = m, func() bool { return m.ID == t.ref.ModuleID && m.CurriculumID == t.ref.CurriculumID }
	case store.CollectionLessons:
		l := &domain.Lesson{}
		doc, idsMatch = l, func() bool { return l.ID == t.ref.LessonID && l.ModuleID == t.ref.ModuleID }
	case store.CollectionSections:
		s := &domain.Section{}
		doc, idsMatch = s, func() bool { return s.ID == t.ref.SectionID && s.LessonID == t.ref.LessonID }
	default:
		return nil, fmt.Errorf("%w: %q holds no known document", ErrInvalidOperation, path)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s at %q: %v", ErrInvalidOperation, t.kind, path, err)
	}
	if !idsMatch() {
		return nil, fmt.Errorf("%w: document IDs do not match %q", ErrInvalidOperation, path)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s at %q: %w", ErrInvalidOperation, t.kind, path, err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t.kind, err)
	}
	return out, nil
}

// mergeFields shallow-merges patch over current.
func mergeFields(current, patch []byte) ([]byte, error) {
	var base, fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &base); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	if base == nil {
		base = make(map[string]json.RawMessage, len(fields))
	}
	maps.Copy(base, fields)
	return json.Marshal(base)
}
