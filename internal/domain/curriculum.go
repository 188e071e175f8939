package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CurriculumType distinguishes a multi-module course from a single focused lesson plan.
type CurriculumType string

const (
	CurriculumTypeCourse CurriculumType = "course"
	CurriculumTypeLesson CurriculumType = "lesson"
)

// CurriculumStatus tracks where a curriculum is in its lifecycle.
type CurriculumStatus string

const (
	CurriculumStatusDraft     CurriculumStatus = "draft"
	CurriculumStatusActive    CurriculumStatus = "active"
	CurriculumStatusCompleted CurriculumStatus = "completed"
)

// Content validation errors.
var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")
)

// Curriculum is the root of a generated study plan. Content lists the titles
// of the modules it is made of.
type Curriculum struct {
	ID          uuid.UUID        `json:"id"`
	Slug        string           `json:"slug"`
	ImageURL    string           `json:"image_url,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Content     []string         `json:"content"`
	Type        CurriculumType   `json:"type"`
	Status      CurriculumStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewCurriculum creates a draft curriculum.
func NewCurriculum(title, description string, content []string, kind CurriculumType) (*Curriculum, error) {
	now := time.Now().UTC()
	if kind == "" {
		kind = CurriculumTypeCourse
	}
	c := &Curriculum{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Content:     trimAll(content),
		Type:        kind,
		Status:      CurriculumStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the curriculum.
func (c *Curriculum) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}
	if c.Title == "" {
		return ErrEmptyTitle
	}
	if len(c.Content) == 0 {
		return ErrEmptyContent
	}
	switch c.Type {
	case CurriculumTypeCourse, CurriculumTypeLesson:
	default:
		return NewValidationError("type", "must be course or lesson", nil)
	}
	switch c.Status {
	case CurriculumStatusDraft, CurriculumStatusActive, CurriculumStatusCompleted:
	default:
		return NewValidationError("status", "must be draft, active or completed", nil)
	}
	return nil
}

// Touch bumps UpdatedAt.
func (c *Curriculum) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
