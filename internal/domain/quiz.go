package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType is the presentation of a question. Both types are answered by
// choosing an option index.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
)

// Unanswered marks a question the learner skipped.
const Unanswered = -1

// Quiz validation errors.
var (
	ErrNoQuestions       = errors.New("quiz must have at least one question")
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrAnswerCount       = errors.New("answer count does not match question count")
	ErrAnswerOutOfRange  = errors.New("answer is not one of the options")
	ErrIncompleteAnswers = errors.New("every question must be answered")
)

// TrueFalseOptions are the fixed options of a true/false question.
var TrueFalseOptions = []string{"True", "False"}

// Question is a single quiz item.
type Question struct {
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	Options     []string     `json:"options"`
	AnswerIndex int          `json:"answer_index"`
	Explanation string       `json:"explanation,omitempty"`
}

// NewTrueFalseQuestion builds a true/false question.
func NewTrueFalseQuestion(text string, answer bool, explanation string) Question {
	idx := 1
	if answer {
		idx = 0
	}
	return Question{
		Type:        QuestionTrueFalse,
		Text:        strings.TrimSpace(text),
		Options:     append([]string(nil), TrueFalseOptions...),
		AnswerIndex: idx,
		Explanation: explanation,
	}
}

// Validate checks the question shape.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("question.text", "is required", ErrInvalidQuestion)
	}
	switch q.Type {
	case QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return NewValidationError("question.options", "needs at least two options", ErrInvalidQuestion)
		}
	case QuestionTrueFalse:
		if len(q.Options) != 2 {
			return NewValidationError("question.options", "must be true and false", ErrInvalidQuestion)
		}
	default:
		return NewValidationError("question.type", "must be multiple_choice or true_false", ErrInvalidQuestion)
	}
	if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
		return NewValidationError("question.answer_index", "is out of range", ErrInvalidQuestion)
	}
	return nil
}

// Quiz is a generated set of questions about the document at TargetPath.
// Quizzes are not persisted; only the resulting score is.
type Quiz struct {
	ID         uuid.UUID  `json:"id"`
	TargetPath string     `json:"target_path"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewQuiz creates a quiz for targetPath.
func NewQuiz(targetPath string, questions []Question) (*Quiz, error) {
	q := &Quiz{
		ID:         uuid.New(),
		TargetPath: targetPath,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the quiz and every question.
func (q *Quiz) Validate() error {
	if q.TargetPath == "" {
		return NewValidationError("target_path", "is required", nil)
	}
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for _, question := range q.Questions {
		if err := question.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Grade scores answers against the quiz. The maximum score equals the
// number of questions, so the score can never exceed it.
func (q *Quiz) Grade(answers []int) (score, max int, err error) {
	if len(answers) != len(q.Questions) {
		return 0, 0, ErrAnswerCount
	}
	for i, question := range q.Questions {
		a := answers[i]
		if a == Unanswered {
			return 0, 0, ErrIncompleteAnswers
		}
		if a < 0 || a >= len(question.Options) {
			return 0, 0, ErrAnswerOutOfRange
		}
		if a == question.AnswerIndex {
			score++
		}
	}
	return score, len(q.Questions), nil
}
