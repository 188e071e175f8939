package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/questionnaire"
	"github.com/learnflex/learnflex-api/internal/store"
)

const questionnaireService = "questionnaire"

// QuestionnaireService serves the learning-style questionnaire.
type QuestionnaireService struct {
	generator generation.Generator
	profiles  store.Repository[domain.Profile]
	styles    *ProfileService
	logger    *slog.Logger
}

// NewQuestionnaireService creates a QuestionnaireService.
func NewQuestionnaireService(
	generator generation.Generator,
	profiles store.Repository[domain.Profile],
	styles *ProfileService,
	logger *slog.Logger,
) *QuestionnaireService {
	return &QuestionnaireService{
		generator: generator,
		profiles:  profiles,
		styles:    styles,
		logger:    logger.With("component", "questionnaire_service"),
	}
}

// Questions returns a questionnaire tailored to the learner's preferences.
// Without a profile, or when generation fails, the embedded bank is used.
func (s *QuestionnaireService) Questions(ctx context.Context, userID uuid.UUID) ([]generation.StyleQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	bank, err := questionnaire.Bank()
	if err != nil {
		return nil, NewServiceError(questionnaireService, "questions", err)
	}

	profile, err := s.profiles.Get(ctx, store.ProfilePath(userID))
	if err != nil {
		if store.IsNotFoundError(err) {
			return bank, nil
		}
		return nil, NewServiceError(questionnaireService, "questions", err)
	}

	resp, err := s.generator.Generate(ctx, generation.Request{
		Kind:        generation.KindStyleQuestionnaire,
		Preferences: profile.Preferences,
		Count:       len(bank),
	})
	if err != nil {
		log.Warn("questionnaire generation failed, using bank", "user_id", userID, "error", err)
		return bank, nil
	}

	var payload generation.QuestionnairePayload
	if err := resp.Decode(&payload); err != nil {
		log.Warn("undecodable questionnaire, using bank", "user_id", userID, "error", err)
		return bank, nil
	}
	if err := questionnaire.Validate(payload.Questions); err != nil {
		log.Warn("invalid generated questionnaire, using bank", "user_id", userID, "error", err)
		return bank, nil
	}
	return payload.Questions, nil
}

// Score converts answers (option indexes, or domain.Unanswered) into a
// learning style.
func (s *QuestionnaireService) Score(questions []generation.StyleQuestion, answers []int) (domain.LearningStyle, error) {
	style, err := questionnaire.Score(questions, answers)
	if err != nil {
		return domain.LearningStyle{}, NewServiceError(questionnaireService, "score", err)
	}
	return style, nil
}

// SaveStyle stores the result on the profile.
func (s *QuestionnaireService) SaveStyle(ctx context.Context, userID uuid.UUID, style domain.LearningStyle) (*domain.Profile, error) {
	return s.styles.UpdateLearningStyle(ctx, userID, style)
}
