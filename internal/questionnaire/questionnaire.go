// Package questionnaire holds the fallback learning-style questionnaire and
// scores answers into a domain.LearningStyle.
package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var bankYAML []byte

var (
	// ErrInvalidQuestionnaire is returned for questions that do not offer
	// exactly one option per learning style.
	ErrInvalidQuestionnaire = errors.New("invalid questionnaire")

	// ErrAnswerCount is returned when answers and questions differ in length.
	ErrAnswerCount = errors.New("answer count does not match question count")

	// ErrAnswerOutOfRange is returned for an answer that is not an option index.
	ErrAnswerOutOfRange = errors.New("answer is not one of the options")
)

// Bank returns the embedded questionnaire. Each call returns a fresh copy.
func Bank() ([]generation.StyleQuestion, error) {
	return Parse(bankYAML)
}

// Parse decodes and validates a YAML questionnaire.
func Parse(data []byte) ([]generation.StyleQuestion, error) {
	var payload generation.QuestionnairePayload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionnaire, err)
	}
	if err := Validate(payload.Questions); err != nil {
		return nil, err
	}
	return payload.Questions, nil
}

// Validate checks that there is at least one question and that every option
// names a known style.
func Validate(questions []generation.StyleQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestionnaire)
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuestionnaire, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuestionnaire, i)
		}
		for _, o := range q.Options {
			if !domain.Style(o.Style).IsValid() {
				return fmt.Errorf("%w: question %d has unknown style %q", ErrInvalidQuestionnaire, i, o.Style)
			}
		}
	}
	return nil
}

// Score counts the style of each chosen option and converts the counts into
// whole percentages. Unanswered questions (domain.Unanswered) are skipped,
// but at least one answer is required.
func Score(questions []generation.StyleQuestion, answers []int) (domain.LearningStyle, error) {
	if len(answers) != len(questions) {
		return domain.LearningStyle{}, ErrAnswerCount
	}
	counts := make(map[domain.Style]int, len(domain.Styles))
	for i, a := range answers {
		if a == domain.Unanswered {
			continue
		}
		if a < 0 || a >= len(questions[i].Options) {
			return domain.LearningStyle{}, fmt.Errorf("%w: question %d", ErrAnswerOutOfRange, i)
		}
		counts[domain.Style(questions[i].Options[a].Style)]++
	}
	return domain.LearningStyleFromCounts(counts)
}
