package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Collection names used in document paths.
const (
	CollectionProfiles  = "profiles"
	CollectionCurricula = "curricula"
	CollectionModules   = "modules"
	CollectionLessons   = "lessons"
	CollectionSections  = "sections"
)

const separator = "/"

// PathBuilder assembles a document or collection path one segment at a time.
// Segments must alternate collection, document, collection, ... starting
// with a collection. The first invalid segment is remembered and reported
// by Build.
type PathBuilder struct {
	segments []string
	err      error
}

// NewPathBuilder returns an empty builder.
func NewPathBuilder() *PathBuilder {
	return &PathBuilder{}
}

// Collection appends a collection segment.
func (b *PathBuilder) Collection(name string) *PathBuilder {
	if b.err == nil && len(b.segments)%2 != 0 {
		b.err = fmt.Errorf("%w: collection %q must follow a document", ErrInvalidPath, name)
	}
	return b.add(name)
}

// Document appends a document ID segment.
func (b *PathBuilder) Document(id string) *PathBuilder {
	if b.err == nil && len(b.segments)%2 == 0 {
		b.err = fmt.Errorf("%w: document %q must follow a collection", ErrInvalidPath, id)
	}
	return b.add(id)
}

func (b *PathBuilder) add(segment string) *PathBuilder {
	if b.err == nil {
		if err := validateSegment(segment); err != nil {
			b.err = err
		}
	}
	b.segments = append(b.segments, segment)
	return b
}

// Build joins the segments or returns the first error recorded.
func (b *PathBuilder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.segments) == 0 {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return strings.Join(b.segments, separator), nil
}

func validateSegment(segment string) error {
	if strings.TrimSpace(segment) == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.Contains(segment, separator) {
		return fmt.Errorf("%w: segment %q contains %q", ErrInvalidPath, segment, separator)
	}
	return nil
}

// ParsedPath is the result of ParsePath.
type ParsedPath struct {
	Segments []string
}

// IsDocument reports whether the path names a document (even segment count).
func (p ParsedPath) IsDocument() bool {
	return len(p.Segments)%2 == 0
}

// IsCollection reports whether the path names a collection.
func (p ParsedPath) IsCollection() bool {
	return !p.IsDocument()
}

// Collection returns the name of the innermost collection in the path.
func (p ParsedPath) Collection() string {
	if p.IsDocument() {
		return p.Segments[len(p.Segments)-2]
	}
	return p.Segments[len(p.Segments)-1]
}

// ID returns the document ID, or "" for a collection path.
func (p ParsedPath) ID() string {
	if p.IsDocument() {
		return p.Segments[len(p.Segments)-1]
	}
	return ""
}

// Owner returns the user ID from a path rooted at profiles/{uid}.
func (p ParsedPath) Owner() (string, bool) {
	if len(p.Segments) < 2 || p.Segments[0] != CollectionProfiles {
		return "", false
	}
	return p.Segments[1], true
}

// ParsePath splits and validates a path.
func ParsePath(path string) (ParsedPath, error) {
	if path == "" {
		return ParsedPath{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, separator)
	for _, s := range segments {
		if err := validateSegment(s); err != nil {
			return ParsedPath{}, fmt.Errorf("%w in %q", err, path)
		}
	}
	return ParsedPath{Segments: segments}, nil
}

// Parent returns the collection path that contains the document at path.
func Parent(path string) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if !p.IsDocument() {
		return "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return strings.Join(p.Segments[:len(p.Segments)-1], separator), nil
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+separator)
}

// The helpers below build the fixed learner hierarchy:
// profiles/{uid}/curricula/{cid}/modules/{mid}/lessons/{lid}/sections/{sid}
// Every segment is a UUID or a constant, so they cannot fail.

func ProfilePath(uid uuid.UUID) string {
	return join(CollectionProfiles, uid.String())
}

func CurriculaPath(uid uuid.UUID) string {
	return join(ProfilePath(uid), CollectionCurricula)
}

func CurriculumPath(uid, cid uuid.UUID) string {
	return join(CurriculaPath(uid), cid.String())
}

func ModulesPath(uid, cid uuid.UUID) string {
	return join(CurriculumPath(uid, cid), CollectionModules)
}

func ModulePath(uid, cid, mid uuid.UUID) string {
	return join(ModulesPath(uid, cid), mid.String())
}

func LessonsPath(uid, cid, mid uuid.UUID) string {
	return join(ModulePath(uid, cid, mid), CollectionLessons)
}

func LessonPath(uid, cid, mid, lid uuid.UUID) string {
	return join(LessonsPath(uid, cid, mid), lid.String())
}

func SectionsPath(uid, cid, mid, lid uuid.UUID) string {
	return join(LessonPath(uid, cid, mid, lid), CollectionSections)
}

func SectionPath(uid, cid, mid, lid, sid uuid.UUID) string {
	return join(SectionsPath(uid, cid, mid, lid), sid.String())
}

func join(parts ...string) string {
	return strings.Join(parts, separator)
}

// ContentRef identifies a curriculum, module, lesson or section by the IDs
// along its path.
type ContentRef struct {
	UserID       uuid.UUID
	CurriculumID uuid.UUID
	ModuleID     uuid.UUID
	LessonID     uuid.UUID
	SectionID    uuid.UUID
}

// Kind returns the collection of the deepest ID set.
func (r ContentRef) Kind() string {
	switch {
	case r.SectionID != uuid.Nil:
		return CollectionSections
	case r.LessonID != uuid.Nil:
		return CollectionLessons
	case r.ModuleID != uuid.Nil:
		return CollectionModules
	default:
		return CollectionCurricula
	}
}

// Path renders the document path of the ref.
func (r ContentRef) Path() string {
	switch r.Kind() {
	case CollectionSections:
		return SectionPath(r.UserID, r.CurriculumID, r.ModuleID, r.LessonID, r.SectionID)
	case CollectionLessons:
		return LessonPath(r.UserID, r.CurriculumID, r.ModuleID, r.LessonID)
	case CollectionModules:
		return ModulePath(r.UserID, r.CurriculumID, r.ModuleID)
	default:
		return CurriculumPath(r.UserID, r.CurriculumID)
	}
}

// ParseContentRef parses a curriculum, module, lesson or section document
// path in the learner hierarchy.
func ParseContentRef(path string) (ContentRef, error) {
	p, err := ParsePath(path)
	if err != nil {
		return ContentRef{}, err
	}
	expected := []string{CollectionProfiles, CollectionCurricula, CollectionModules, CollectionLessons, CollectionSections}
	if !p.IsDocument() || len(p.Segments) < 4 || len(p.Segments) > 2*len(expected) {
		return ContentRef{}, fmt.Errorf("%w: %q is not a content document", ErrInvalidPath, path)
	}

	ids := make([]uuid.UUID, 0, len(p.Segments)/2)
	for i := 0; i < len(p.Segments); i += 2 {
		if p.Segments[i] != expected[i/2] {
			return ContentRef{}, fmt.Errorf("%w: unexpected collection %q", ErrInvalidPath, p.Segments[i])
		}
		id, err := uuid.Parse(p.Segments[i+1])
		if err != nil {
			return ContentRef{}, fmt.Errorf("%w: bad id %q", ErrInvalidPath, p.Segments[i+1])
		}
		ids = append(ids, id)
	}

	ref := ContentRef{UserID: ids[0], CurriculumID: ids[1]}
	if len(ids) > 2 {
		ref.ModuleID = ids[2]
	}
	if len(ids) > 3 {
		ref.LessonID = ids[3]
	}
	if len(ids) > 4 {
		ref.SectionID = ids[4]
	}
	return ref, nil
}
