package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Field is a broad subject area a learner studies.
type Field string

// Supported fields.
const (
	FieldComputerScience Field = "computer_science"
	FieldMathematics     Field = "mathematics"
	FieldPhysics         Field = "physics"
	FieldChemistry       Field = "chemistry"
	FieldBiology         Field = "biology"
	FieldEngineering     Field = "engineering"
	FieldEconomics       Field = "economics"
	FieldBusiness        Field = "business"
	FieldHistory         Field = "history"
	FieldLiterature      Field = "literature"
	FieldLanguages       Field = "languages"
	FieldArts            Field = "arts"
)

var fields = map[Field]string{
	FieldComputerScience: "Computer Science",
	FieldMathematics:     "Mathematics",
	FieldPhysics:         "Physics",
	FieldChemistry:       "Chemistry",
	FieldBiology:         "Biology",
	FieldEngineering:     "Engineering",
	FieldEconomics:       "Economics",
	FieldBusiness:        "Business",
	FieldHistory:         "History",
	FieldLiterature:      "Literature",
	FieldLanguages:       "Languages",
	FieldArts:            "Arts",
}

// IsValid reports whether f is a supported field.
func (f Field) IsValid() bool {
	_, ok := fields[f]
	return ok
}

// DisplayName returns the human label used in prompts and reports.
func (f Field) DisplayName() string {
	if name, ok := fields[f]; ok {
		return name
	}
	return string(f)
}

// Level is the learner's self-assessed proficiency.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// IsValid reports whether l is a supported level.
func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// MaxGoalLength bounds the free-text learning goal.
const MaxGoalLength = 500

// Preferences capture what and how deep the learner wants to study.
type Preferences struct {
	Field Field  `json:"field"`
	Level Level  `json:"level"`
	Goal  string `json:"goal"`
}

// Validate checks each preference.
func (p Preferences) Validate() error {
	if !p.Field.IsValid() {
		return NewValidationError("field", "is not a supported field", nil)
	}
	if !p.Level.IsValid() {
		return NewValidationError("level", "must be beginner, intermediate or advanced", nil)
	}
	if p.Goal == "" {
		return NewValidationError("goal", "is required", nil)
	}
	if len(p.Goal) > MaxGoalLength {
		return NewValidationError("goal", "is too long", nil)
	}
	return nil
}

// Profile validation errors.
var (
	ErrInvalidUsername = errors.New("username must be 3-30 characters of letters, digits, '_', '.' or '-'")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

// Profile is the learner-facing record stored at profiles/{userId}.
type Profile struct {
	ID            uuid.UUID     `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	PhotoURL      string        `json:"photo_url,omitempty"`
	Preferences   Preferences   `json:"preferences"`
	LearningStyle LearningStyle `json:"learning_style"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewProfile creates a profile for an existing user. The learning style is
// empty until the questionnaire is completed.
func NewProfile(userID uuid.UUID, username, email string, prefs Preferences) (*Profile, error) {
	now := time.Now().UTC()
	p := &Profile{
		ID:          userID,
		Username:    username,
		Email:       NormalizeEmail(email),
		Preferences: prefs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile and its nested values.
func (p *Profile) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if err := ValidateUsername(p.Username); err != nil {
		return err
	}
	if err := ValidateEmail(p.Email); err != nil {
		return err
	}
	if err := p.Preferences.Validate(); err != nil {
		return err
	}
	return p.LearningStyle.Validate()
}

// ValidateUsername enforces the username format.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return NewValidationError("username", "must be 3-30 characters of letters, digits, '_', '.' or '-'", ErrInvalidUsername)
	}
	return nil
}

// Touch bumps UpdatedAt.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// HasLearningStyle reports whether the questionnaire has been completed.
func (p *Profile) HasLearningStyle() bool {
	return p.LearningStyle.Dominant != ""
}
