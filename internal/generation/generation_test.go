package generation

import (
	"errors"
	"iter"
	"testing"

	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    Kind
		raw     string
		wantErr error
	}{
		{"curriculum", KindCurriculum, `{"title":"Go","description":"d","content":["Syntax"]}`, nil},
		{"curriculum without content", KindCurriculum, `{"title":"Go","description":"d","content":[]}`, ErrInvalidResponse},
		{"modules", KindModule, `{"items":[{"title":"A","description":"","content":["x"]}]}`, nil},
		{"sections", KindSection, `{"sections":[{"title":"A","content":"body"}]}`, nil},
		{"quiz", KindQuiz, `{"questions":[{"type":"true_false","text":"Go is typed","answer_index":0}]}`, nil},
		{"quiz bad type", KindQuiz, `{"questions":[{"type":"essay","text":"?","answer_index":0}]}`, ErrInvalidResponse},
		{"questionnaire bad style", KindStyleQuestionnaire,
			`{"questions":[{"text":"q","options":[{"text":"a","style":"auditory"},{"text":"b","style":"visual"}]}]}`, ErrInvalidResponse},
		{"not json", KindModule, `{"items":`, ErrInvalidResponse},
		{"empty", KindLesson, ``, ErrInvalidResponse},
		{"unknown kind", Kind("poem"), `{}`, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponse(tt.kind, []byte(tt.raw))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	prefs := domain.Preferences{Field: domain.FieldArts, Level: domain.LevelBeginner, Goal: "paint"}

	assert.NoError(t, Request{Kind: KindCurriculum, Preferences: prefs}.Validate())
	assert.NoError(t, Request{Kind: KindQuiz, Title: "Brushes", Count: 5}.Validate())
	assert.ErrorIs(t, Request{Kind: "poem"}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{Kind: KindCurriculum}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{Kind: KindLesson, Title: " "}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{Kind: KindQuiz, Title: "x", Count: -1}.Validate(), ErrInvalidRequest)
}

func chunks(parts []string, final error) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for _, p := range parts {
			if !yield(Chunk{Text: p}, nil) {
				return
			}
		}
		if final != nil {
			yield(Chunk{}, final)
		}
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	resp, err := Collect(KindCurriculum, chunks([]string{`{"title":"Go",`, `"description":"d",`, `"content":["A","B"]}`}, nil))
	require.NoError(t, err)

	var draft CurriculumDraft
	require.NoError(t, resp.Decode(&draft))
	assert.Equal(t, []string{"A", "B"}, draft.Content)

	boom := errors.New("stream broke")
	_, err = Collect(KindCurriculum, chunks([]string{`{"title"`}, boom))
	assert.ErrorIs(t, err, boom)

	_, err = Collect(KindCurriculum, chunks([]string{`{"title":"Go"}`}, nil))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestResponseDecodeInvalid(t *testing.T) {
	t.Parallel()

	r := &Response{Kind: KindQuiz, Raw: []byte(`[]`)}
	var payload QuizPayload
	assert.ErrorIs(t, r.Decode(&payload), ErrInvalidResponse)
}
