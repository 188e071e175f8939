package session

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/service"
)

// KindQuestionnaire identifies questionnaire sessions.
const KindQuestionnaire = "questionnaire"

// RouteDashboard is where a submitted questionnaire navigates.
const RouteDashboard = "dashboard"

// StyleScorer scores questionnaires and saves the result.
// *service.QuestionnaireService satisfies it.
type StyleScorer interface {
	Score(questions []generation.StyleQuestion, answers []int) (domain.LearningStyle, error)
	SaveStyle(ctx context.Context, userID uuid.UUID, style domain.LearningStyle) (*domain.Profile, error)
}

var _ StyleScorer = (*service.QuestionnaireService)(nil)

// QuestionnaireState is the view model of the learning-style questionnaire.
type QuestionnaireState struct {
	Questions []generation.StyleQuestion `json:"questions"`
	Current   int                        `json:"current"`
	Answers   []int                      `json:"answers"`
	Result    *domain.LearningStyle      `json:"result,omitempty"`
}

// QuestionnaireSession is a running questionnaire.
type QuestionnaireSession = Session[QuestionnaireState, Action]

// NewQuestionnaireSession starts a questionnaire for owner.
func NewQuestionnaireSession(owner uuid.UUID, questions []generation.StyleQuestion, scorer StyleScorer) *QuestionnaireSession {
	initial := QuestionnaireState{Questions: questions, Answers: unanswered(len(questions))}
	return New(owner, KindQuestionnaire, initial, questionnaireReducer(owner, scorer))
}

func questionnaireReducer(owner uuid.UUID, scorer StyleScorer) Reducer[QuestionnaireState, Action] {
	return func(ctx context.Context, st QuestionnaireState, a Action, emit Emitter) (QuestionnaireState, error) {
		count := len(st.Questions)

		switch a.Type {
		case ActionSelectAnswer:
			if st.Result != nil {
				return st, Userf(ErrAlreadySubmitted, "Your learning style is already saved.")
			}
			if a.Index < 0 || a.Index >= count {
				return st, Userf(ErrUnknownAction, "That question does not exist.")
			}
			answers, err := selectAnswer(st.Answers, a.Index, a.Choice, len(st.Questions[a.Index].Options))
			if err != nil {
				return st, err
			}
			st.Answers = answers
			st.Current = a.Index

		case ActionNext:
			st.Current = step(st.Current, 1, count)

		case ActionPrevious:
			st.Current = step(st.Current, -1, count)

		case ActionSubmit:
			if st.Result != nil {
				return st, Userf(ErrAlreadySubmitted, "Your learning style is already saved.")
			}
			if slices.Contains(st.Answers, domain.Unanswered) {
				return st, Userf(domain.ErrIncompleteAnswers, "Answer every question before submitting.")
			}
			style, err := scorer.Score(st.Questions, st.Answers)
			if err != nil {
				return st, Userf(err, "Your answers could not be scored.")
			}
			if _, err := scorer.SaveStyle(ctx, owner, style); err != nil {
				return st, Userf(err, "Your learning style could not be saved. Please try again.")
			}
			st.Result = &style
			emit.Emit(Navigate(RouteDashboard))

		default:
			return st, unknownAction(a.Type)
		}
		return st, nil
	}
}
