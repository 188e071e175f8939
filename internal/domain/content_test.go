package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewCurriculum(t *testing.T) {
	c, err := NewCurriculum(" Go Basics ", "An intro", []string{"Syntax", " ", "Concurrency"}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Title != "Go Basics" {
		t.Errorf("Expected trimmed title, got %q", c.Title)
	}
	if len(c.Content) != 2 {
		t.Errorf("Expected blank content entries to be dropped, got %v", c.Content)
	}
	if c.Type != CurriculumTypeCourse || c.Status != CurriculumStatusDraft {
		t.Errorf("Expected course draft, got %s %s", c.Type, c.Status)
	}

	if _, err := NewCurriculum("", "d", []string{"a"}, CurriculumTypeCourse); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Expected %v, got %v", ErrEmptyTitle, err)
	}
	if _, err := NewCurriculum("t", "d", nil, CurriculumTypeCourse); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected %v, got %v", ErrEmptyContent, err)
	}
	if _, err := NewCurriculum("t", "d", []string{"a"}, "podcast"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestScoreInvariant(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		want  error
	}{
		{"not quizzed", Score{}, nil},
		{"perfect", Score{QuizScore: 5, QuizScoreMax: 5}, nil},
		{"partial", Score{QuizScore: 2, QuizScoreMax: 5}, nil},
		{"exceeds max", Score{QuizScore: 6, QuizScoreMax: 5}, ErrScoreExceedsMax},
		{"negative", Score{QuizScore: -1, QuizScoreMax: 5}, ErrNegativeScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.score.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScoreCompleted(t *testing.T) {
	if (Score{}).Completed(0.7) {
		t.Error("Expected unquizzed item to be incomplete")
	}
	if !(Score{QuizScore: 7, QuizScoreMax: 10}).Completed(0.7) {
		t.Error("Expected 7/10 to pass at 0.7")
	}
	if (Score{QuizScore: 6, QuizScoreMax: 10}).Completed(0.7) {
		t.Error("Expected 6/10 to fail at 0.7")
	}
}

func TestItemRecordScore(t *testing.T) {
	m, err := NewModule(uuid.New(), "Syntax", "Basics", []string{"Variables"}, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	before := m.UpdatedAt

	if err := m.RecordScore(4, 3); !errors.Is(err, ErrScoreExceedsMax) {
		t.Errorf("Expected %v, got %v", ErrScoreExceedsMax, err)
	}
	if m.Quizzed() {
		t.Error("Expected rejected score to leave the module untouched")
	}

	if err := m.RecordScore(3, 4); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.QuizScore != 3 || m.QuizScoreMax != 4 {
		t.Errorf("Expected 3/4, got %d/%d", m.QuizScore, m.QuizScoreMax)
	}
	if m.UpdatedAt.Before(before) {
		t.Error("Expected UpdatedAt to move forward")
	}
}

func TestChildValidation(t *testing.T) {
	if _, err := NewModule(uuid.Nil, "t", "d", []string{"a"}, 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected invalid ID, got %v", err)
	}
	if _, err := NewLesson(uuid.New(), "t", "d", nil, 0); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected empty content, got %v", err)
	}
	if _, err := NewSection(uuid.New(), "t", "d", "body", -1); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for negative index, got %v", err)
	}
	if _, err := NewSection(uuid.New(), "t", "d", "  ", 0); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected empty content, got %v", err)
	}
}

func TestQuizGrade(t *testing.T) {
	quiz, err := NewQuiz("profiles/u/curricula/c", []Question{
		{Type: QuestionMultipleChoice, Text: "2+2?", Options: []string{"3", "4", "5"}, AnswerIndex: 1},
		NewTrueFalseQuestion("Go has goroutines", true, ""),
		NewTrueFalseQuestion("Go has classes", false, ""),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	score, max, err := quiz.Grade([]int{1, 0, 0})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if score != 2 || max != 3 {
		t.Errorf("Expected 2/3, got %d/%d", score, max)
	}
	if score > max {
		t.Error("Score must never exceed max")
	}

	if _, _, err := quiz.Grade([]int{1, 0}); !errors.Is(err, ErrAnswerCount) {
		t.Errorf("Expected %v, got %v", ErrAnswerCount, err)
	}
	if _, _, err := quiz.Grade([]int{1, Unanswered, 0}); !errors.Is(err, ErrIncompleteAnswers) {
		t.Errorf("Expected %v, got %v", ErrIncompleteAnswers, err)
	}
	if _, _, err := quiz.Grade([]int{7, 0, 0}); !errors.Is(err, ErrAnswerOutOfRange) {
		t.Errorf("Expected %v, got %v", ErrAnswerOutOfRange, err)
	}
}

func TestQuizValidate(t *testing.T) {
	if _, err := NewQuiz("p/x", nil); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("Expected %v, got %v", ErrNoQuestions, err)
	}
	bad := Question{Type: QuestionMultipleChoice, Text: "q", Options: []string{"only"}, AnswerIndex: 0}
	if _, err := NewQuiz("p/x", []Question{bad}); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected %v, got %v", ErrInvalidQuestion, err)
	}
	outOfRange := Question{Type: QuestionMultipleChoice, Text: "q", Options: []string{"a", "b"}, AnswerIndex: 2}
	if _, err := NewQuiz("p/x", []Question{outOfRange}); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected %v, got %v", ErrInvalidQuestion, err)
	}
}
