package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/learnflex/learnflex-api/internal/domain"
)

// Kind selects what the model is asked to write.
type Kind string

const (
	KindCurriculum         Kind = "curriculum"
	KindModule             Kind = "module"
	KindLesson             Kind = "lesson"
	KindSection            Kind = "section"
	KindQuiz               Kind = "quiz"
	KindStyleQuestionnaire Kind = "style_questionnaire"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{KindCurriculum, KindModule, KindLesson, KindSection, KindQuiz, KindStyleQuestionnaire}

// IsValid reports whether k is a supported Kind.
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Request describes one generation call.
//
// Title and Description name the parent the content is written for
// (the curriculum for modules, the module for lessons, and so on, or the
// item under test for quizzes). Context carries the parent's content
// outline, and Count is the number of items or questions wanted.
type Request struct {
	Kind          Kind
	Preferences   domain.Preferences
	LearningStyle domain.LearningStyle
	Title         string
	Description   string
	Context       []string
	Count         int
}

// Validate checks that the request carries what its Kind needs.
func (r Request) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: negative count", ErrInvalidRequest)
	}
	switch r.Kind {
	case KindCurriculum, KindStyleQuestionnaire:
		if err := r.Preferences.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	default:
		if strings.TrimSpace(r.Title) == "" {
			return fmt.Errorf("%w: %s generation needs a parent title", ErrInvalidRequest, r.Kind)
		}
	}
	return nil
}

// Response is a schema-validated JSON document produced by the model.
type Response struct {
	Kind Kind            `json:"kind"`
	Raw  json.RawMessage `json:"raw"`
}

// Decode unmarshals the response into v, typically one of the payload types.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Chunk is one piece of streamed model output.
type Chunk struct {
	Text string
}

// Generator produces learning content from a language model.
type Generator interface {
	// Generate returns the complete, validated response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Stream yields text chunks as the model produces them. A failure,
	// including a completed document that fails validation, is yielded as the
	// final error and ends the sequence.
	Stream(ctx context.Context, req Request) iter.Seq2[Chunk, error]
}

// Collect concatenates a stream into a validated Response.
func Collect(kind Kind, seq iter.Seq2[Chunk, error]) (*Response, error) {
	var sb strings.Builder
	for chunk, err := range seq {
		if err != nil {
			return nil, err
		}
		sb.WriteString(chunk.Text)
	}
	raw := []byte(strings.TrimSpace(sb.String()))
	if err := ValidateResponse(kind, raw); err != nil {
		return nil, err
	}
	return &Response{Kind: kind, Raw: raw}, nil
}
