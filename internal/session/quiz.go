package session

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/service"
)

// KindQuiz identifies quiz sessions.
const KindQuiz = "quiz"

// RouteQuizResult is where a submitted quiz navigates.
const RouteQuizResult = "quiz/result"

// QuizScorer grades quizzes and records scores.
// *service.QuizService satisfies it.
type QuizScorer interface {
	Grade(quiz *domain.Quiz, answers []int) (score, max int, err error)
	RecordScore(ctx context.Context, userID uuid.UUID, targetPath string, score, max int) (*service.ScoreResult, error)
}

var _ QuizScorer = (*service.QuizService)(nil)

// QuizState is the view model of a quiz in progress.
type QuizState struct {
	Quiz                *domain.Quiz `json:"quiz"`
	Current             int          `json:"current"`
	Answers             []int        `json:"answers"`
	Finished            bool         `json:"finished"`
	Score               int          `json:"score"`
	Max                 int          `json:"max"`
	Completed           bool         `json:"completed"`
	CurriculumCompleted bool         `json:"curriculum_completed"`
}

// QuizSession is a running quiz.
type QuizSession = Session[QuizState, Action]

// NewQuizSession starts a quiz for owner.
func NewQuizSession(owner uuid.UUID, quiz *domain.Quiz, scorer QuizScorer) *QuizSession {
	initial := QuizState{Quiz: quiz, Answers: unanswered(len(quiz.Questions))}
	return New(owner, KindQuiz, initial, quizReducer(owner, scorer))
}

func quizReducer(owner uuid.UUID, scorer QuizScorer) Reducer[QuizState, Action] {
	return func(ctx context.Context, st QuizState, a Action, emit Emitter) (QuizState, error) {
		count := len(st.Quiz.Questions)

		switch a.Type {
		case ActionSelectAnswer:
			if st.Finished {
				return st, Userf(ErrAlreadySubmitted, "This quiz is already submitted. Retry to answer again.")
			}
			if a.Index < 0 || a.Index >= count {
				return st, Userf(ErrUnknownAction, "That question does not exist.")
			}
			answers, err := selectAnswer(st.Answers, a.Index, a.Choice, len(st.Quiz.Questions[a.Index].Options))
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
			if st.Finished {
				return st, Userf(ErrAlreadySubmitted, "This quiz is already submitted.")
			}
			if slices.Contains(st.Answers, domain.Unanswered) {
				return st, Userf(domain.ErrIncompleteAnswers, "Answer every question before submitting.")
			}
			score, total, err := scorer.Grade(st.Quiz, st.Answers)
			if err != nil {
				return st, Userf(err, "Your answers could not be graded.")
			}
			result, err := scorer.RecordScore(ctx, owner, st.Quiz.TargetPath, score, total)
			if err != nil {
				if errors.Is(err, service.ErrNotOwned) || errors.Is(err, service.ErrNotFound) {
					return st, Userf(err, "This content is no longer available.")
				}
				return st, Userf(err, "Your score could not be saved. Please try again.")
			}
			st.Finished = true
			st.Score, st.Max = score, total
			st.Completed = result.Completed
			st.CurriculumCompleted = result.CurriculumCompleted
			emit.Emit(Navigate(RouteQuizResult))

		case ActionRetry:
			st = QuizState{Quiz: st.Quiz, Answers: unanswered(count)}

		default:
			return st, unknownAction(a.Type)
		}
		return st, nil
	}
}

// Public returns the state as shown to the learner: correct answers and
// explanations stay hidden until the quiz is submitted.
func (st QuizState) Public() any {
	if st.Finished || st.Quiz == nil {
		return st
	}
	quiz := *st.Quiz
	quiz.Questions = make([]domain.Question, len(st.Quiz.Questions))
	for i, q := range st.Quiz.Questions {
		q.AnswerIndex = domain.Unanswered
		q.Explanation = ""
		quiz.Questions[i] = q
	}
	st.Quiz = &quiz
	return st
}
