package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Score is the quiz result recorded on a module, lesson or section.
// QuizScoreMax is zero until the item has been quizzed.
type Score struct {
	QuizScore    int `json:"quiz_score"`
	QuizScoreMax int `json:"quiz_score_max"`
}

// Validate enforces 0 <= QuizScore <= QuizScoreMax.
func (s Score) Validate() error {
	if s.QuizScore < 0 || s.QuizScoreMax < 0 {
		return ErrNegativeScore
	}
	if s.QuizScore > s.QuizScoreMax {
		return ErrScoreExceedsMax
	}
	return nil
}

// Quizzed reports whether a score has been recorded.
func (s Score) Quizzed() bool {
	return s.QuizScoreMax > 0
}

// Ratio is QuizScore/QuizScoreMax, or 0 when not quizzed.
func (s Score) Ratio() float64 {
	if !s.Quizzed() {
		return 0
	}
	return float64(s.QuizScore) / float64(s.QuizScoreMax)
}

// Completed reports whether the item was quizzed with at least passingRatio.
func (s Score) Completed(passingRatio float64) bool {
	return s.Quizzed() && s.Ratio() >= passingRatio
}

// Item holds the fields shared by modules, lessons and sections.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ImageURL    string    `json:"image_url,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Index       int       `json:"index"`
	Score
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newItem(title, description string, index int) Item {
	now := time.Now().UTC()
	return Item{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Index:       index,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (it *Item) validate() error {
	if it.ID == uuid.Nil {
		return ErrInvalidID
	}
	if it.Title == "" {
		return ErrEmptyTitle
	}
	if it.Index < 0 {
		return NewValidationError("index", "cannot be negative", nil)
	}
	return it.Score.Validate()
}

// RecordScore stores a quiz result after checking the score invariant.
func (it *Item) RecordScore(score, max int) error {
	next := Score{QuizScore: score, QuizScoreMax: max}
	if err := next.Validate(); err != nil {
		return err
	}
	it.Score = next
	it.UpdatedAt = time.Now().UTC()
	return nil
}

// Module is a unit of a curriculum. Content lists its lesson titles.
type Module struct {
	Item
	CurriculumID uuid.UUID `json:"curriculum_id"`
	Content      []string  `json:"content"`
}

// NewModule creates a module of curriculumID at position index.
func NewModule(curriculumID uuid.UUID, title, description string, content []string, index int) (*Module, error) {
	m := &Module{Item: newItem(title, description, index), CurriculumID: curriculumID, Content: trimAll(content)}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the module.
func (m *Module) Validate() error {
	if err := m.Item.validate(); err != nil {
		return err
	}
	if m.CurriculumID == uuid.Nil {
		return NewValidationError("curriculum_id", "is required", ErrInvalidID)
	}
	if len(m.Content) == 0 {
		return ErrEmptyContent
	}
	return nil
}

// Lesson is a unit of a module. Content lists its section titles.
type Lesson struct {
	Item
	ModuleID uuid.UUID `json:"module_id"`
	Content  []string  `json:"content"`
}

// NewLesson creates a lesson of moduleID at position index.
func NewLesson(moduleID uuid.UUID, title, description string, content []string, index int) (*Lesson, error) {
	l := &Lesson{Item: newItem(title, description, index), ModuleID: moduleID, Content: trimAll(content)}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the lesson.
func (l *Lesson) Validate() error {
	if err := l.Item.validate(); err != nil {
		return err
	}
	if l.ModuleID == uuid.Nil {
		return NewValidationError("module_id", "is required", ErrInvalidID)
	}
	if len(l.Content) == 0 {
		return ErrEmptyContent
	}
	return nil
}

// Section is the smallest readable unit. Content is its body text.
type Section struct {
	Item
	LessonID uuid.UUID `json:"lesson_id"`
	Content  string    `json:"content"`
}

// NewSection creates a section of lessonID at position index.
func NewSection(lessonID uuid.UUID, title, description, content string, index int) (*Section, error) {
	s := &Section{Item: newItem(title, description, index), LessonID: lessonID, Content: strings.TrimSpace(content)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the section.
func (s *Section) Validate() error {
	if err := s.Item.validate(); err != nil {
		return err
	}
	if s.LessonID == uuid.Nil {
		return NewValidationError("lesson_id", "is required", ErrInvalidID)
	}
	if s.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
