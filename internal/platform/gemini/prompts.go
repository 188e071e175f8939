package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Default item counts when a request leaves Count at zero.
const (
	defaultCurriculumModules  = 5
	defaultQuizQuestions      = 5
	defaultQuestionnaireItems = 8
)

// promptData is the data passed to the prompt templates.
type promptData struct {
	FieldName   string
	Level       domain.Level
	Goal        string
	Style       domain.Style
	Breakdown   string
	Title       string
	Description string
	Context     []string
	Count       int
}

func parsePrompts() (*template.Template, error) {
	tmpl, err := template.New("prompts").ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt templates: %v", generation.ErrInvalidConfig, err)
	}
	for _, kind := range generation.Kinds {
		if tmpl.Lookup(string(kind)+".tmpl") == nil {
			return nil, fmt.Errorf("%w: missing prompt template for %s", generation.ErrInvalidConfig, kind)
		}
	}
	return tmpl, nil
}

func newPromptData(req generation.Request) promptData {
	data := promptData{
		FieldName:   req.Preferences.Field.DisplayName(),
		Level:       req.Preferences.Level,
		Goal:        req.Preferences.Goal,
		Title:       req.Title,
		Description: req.Description,
		Context:     req.Context,
		Count:       req.Count,
	}

	if ls := req.LearningStyle; ls.Dominant != "" {
		data.Style = ls.Dominant
		parts := make([]string, 0, len(domain.Styles))
		for _, s := range domain.Styles {
			parts = append(parts, fmt.Sprintf("%s %d%%", s, ls.Breakdown.Get(s)))
		}
		data.Breakdown = strings.Join(parts, ", ")
	}

	if data.Count == 0 {
		switch req.Kind {
		case generation.KindCurriculum:
			data.Count = defaultCurriculumModules
		case generation.KindQuiz:
			data.Count = defaultQuizQuestions
		case generation.KindStyleQuestionnaire:
			data.Count = defaultQuestionnaireItems
		default:
			data.Count = len(req.Context)
		}
	}
	return data
}

func renderPrompt(tmpl *template.Template, req generation.Request) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, string(req.Kind)+".tmpl", newPromptData(req)); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
