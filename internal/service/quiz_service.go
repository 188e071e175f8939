package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/store"
)

const quizService = "quiz"

// DefaultPassingRatio is used when no ratio is configured.
const DefaultPassingRatio = 0.7

// ScoreResult reports the effect of RecordScore.
type ScoreResult struct {
	TargetPath          string       `json:"target_path"`
	Score               domain.Score `json:"score"`
	Completed           bool         `json:"completed"`
	CurriculumCompleted bool         `json:"curriculum_completed"`
}

// QuizService generates quizzes about modules, lessons and sections and
// records their scores.
type QuizService struct {
	db           store.TxBeginner
	repos        Repositories
	generator    generation.Generator
	passingRatio float64
	bundles      BundleInvalidator
	logger       *slog.Logger
}

// NewQuizService creates a QuizService. A passingRatio outside (0, 1]
// falls back to DefaultPassingRatio.
func NewQuizService(
	db store.TxBeginner,
	repos Repositories,
	generator generation.Generator,
	passingRatio float64,
	bundles BundleInvalidator,
	logger *slog.Logger,
) *QuizService {
	if passingRatio <= 0 || passingRatio > 1 {
		passingRatio = DefaultPassingRatio
	}
	return &QuizService{
		db:           db,
		repos:        repos,
		generator:    generator,
		passingRatio: passingRatio,
		bundles:      orNoop(bundles),
		logger:       logger.With("component", "quiz_service"),
	}
}

// PassingRatio is the minimum score ratio for completion.
func (s *QuizService) PassingRatio() float64 {
	return s.passingRatio
}

// target parses a quiz target path owned by userID.
func target(userID uuid.UUID, path string) (store.ContentRef, error) {
	ref, err := store.ParseContentRef(path)
	if err != nil || ref.Kind() == store.CollectionCurricula {
		return store.ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidTarget, path)
	}
	if ref.UserID != userID {
		return store.ContentRef{}, ErrNotOwned
	}
	return ref, nil
}

type quizSubject struct {
	title, description string
	material           []string
}

func (s *QuizService) subject(ctx context.Context, ref store.ContentRef) (quizSubject, error) {
	path := ref.Path()
	switch ref.Kind() {
	case store.CollectionModules:
		m, err := s.repos.Modules.Get(ctx, path)
		return quizSubject{m.Title, m.Description, m.Content}, err
	case store.CollectionLessons:
		l, err := s.repos.Lessons.Get(ctx, path)
		return quizSubject{l.Title, l.Description, l.Content}, err
	default:
		sec, err := s.repos.Sections.Get(ctx, path)
		return quizSubject{sec.Title, sec.Description, []string{sec.Content}}, err
	}
}

// GenerateQuiz writes a quiz about the module, lesson or section at
// targetPath. Quizzes are not stored.
func (s *QuizService) GenerateQuiz(ctx context.Context, userID uuid.UUID, targetPath string) (*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ref, err := target(userID, targetPath)
	if err != nil {
		return nil, NewServiceError(quizService, "generate", err)
	}
	subject, err := s.subject(ctx, ref)
	if err != nil {
		return nil, NewServiceError(quizService, "generate", err)
	}
	profile, err := requireProfile(ctx, s.repos.Profiles, userID)
	if err != nil {
		return nil, NewServiceError(quizService, "generate", err)
	}

	resp, err := s.generator.Generate(ctx, generation.Request{
		Kind:          generation.KindQuiz,
		Preferences:   profile.Preferences,
		LearningStyle: profile.LearningStyle,
		Title:         subject.title,
		Description:   subject.description,
		Context:       subject.material,
	})
	if err != nil {
		log.Error("quiz generation failed", "target", targetPath, "error", err)
		return nil, NewServiceError(quizService, "generate", err)
	}

	var payload generation.QuizPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, NewServiceError(quizService, "generate", err)
	}
	questions := questionsFromDrafts(payload.Questions)
	if dropped := len(payload.Questions) - len(questions); dropped > 0 {
		log.Warn("dropped malformed quiz questions", "target", targetPath, "dropped", dropped)
	}
	quiz, err := domain.NewQuiz(ref.Path(), questions)
	if err != nil {
		return nil, NewServiceError(quizService, "generate", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err))
	}
	return quiz, nil
}

// questionsFromDrafts keeps the drafts that form valid questions.
func questionsFromDrafts(drafts []generation.QuestionDraft) []domain.Question {
	out := make([]domain.Question, 0, len(drafts))
	for _, d := range drafts {
		q := domain.Question{
			Type:        domain.QuestionType(d.Type),
			Text:        strings.TrimSpace(d.Text),
			Options:     d.Options,
			AnswerIndex: d.AnswerIndex,
			Explanation: d.Explanation,
		}
		if q.Type == domain.QuestionTrueFalse && len(q.Options) == 0 {
			q.Options = append([]string(nil), domain.TrueFalseOptions...)
		}
		if q.Validate() == nil {
			out = append(out, q)
		}
	}
	return out
}

// Grade scores answers, given as option indexes, against quiz.
func (s *QuizService) Grade(quiz *domain.Quiz, answers []int) (score, max int, err error) {
	score, max, err = quiz.Grade(answers)
	if err != nil {
		return 0, 0, NewServiceError(quizService, "grade", err)
	}
	return score, max, nil
}

type scorable interface {
	RecordScore(score, max int) error
}

func recordOn[T any, PT interface {
	*T
	scorable
}](ctx context.Context, repo store.Repository[T], path string, score, max int) (T, error) {
	doc, err := repo.Get(ctx, path)
	if err != nil {
		return doc, err
	}
	if err := PT(&doc).RecordScore(score, max); err != nil {
		return doc, err
	}
	return doc, repo.Update(ctx, path, doc)
}

// RecordScore stores a quiz result on its target. When a module result
// completes the last unfinished module, the curriculum is marked completed.
func (s *QuizService) RecordScore(ctx context.Context, userID uuid.UUID, targetPath string, score, max int) (*ScoreResult, error) {
	ref, err := target(userID, targetPath)
	if err != nil {
		return nil, NewServiceError(quizService, "record_score", err)
	}
	result := &ScoreResult{TargetPath: ref.Path(), Score: domain.Score{QuizScore: score, QuizScoreMax: max}}
	if err := result.Score.Validate(); err != nil {
		return nil, NewServiceError(quizService, "record_score", err)
	}
	result.Completed = result.Score.Completed(s.passingRatio)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		var err error
		switch ref.Kind() {
		case store.CollectionModules:
			if _, err = recordOn(ctx, repos.Modules, ref.Path(), score, max); err != nil {
				return err
			}
			result.CurriculumCompleted, err = s.completeCurriculum(ctx, repos, ref)
		case store.CollectionLessons:
			_, err = recordOn(ctx, repos.Lessons, ref.Path(), score, max)
		default:
			_, err = recordOn(ctx, repos.Sections, ref.Path(), score, max)
		}
		return err
	})
	if err != nil {
		return nil, NewServiceError(quizService, "record_score", err)
	}

	if err := s.bundles.Invalidate(ctx, userID, ref.CurriculumID); err != nil {
		s.logger.Warn("failed to invalidate bundle", "curriculum_id", ref.CurriculumID, "error", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("quiz score recorded",
		"target", result.TargetPath, "score", score, "max", max, "completed", result.Completed)
	return result, nil
}

// completeCurriculum marks the curriculum completed when every module is.
func (s *QuizService) completeCurriculum(ctx context.Context, repos Repositories, ref store.ContentRef) (bool, error) {
	modules, err := repos.Modules.GetAll(ctx, store.ModulesPath(ref.UserID, ref.CurriculumID))
	if err != nil {
		return false, err
	}
	for _, m := range modules {
		if !m.Completed(s.passingRatio) {
			return false, nil
		}
	}

	path := store.CurriculumPath(ref.UserID, ref.CurriculumID)
	c, err := repos.Curricula.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if c.Status == domain.CurriculumStatusCompleted {
		return true, nil
	}
	c.Status = domain.CurriculumStatusCompleted
	c.Touch()
	return true, repos.Curricula.Update(ctx, path, c)
}
