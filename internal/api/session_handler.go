package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/generation"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/session"
)

// QuestionnaireService supplies and scores learning-style questionnaires.
type QuestionnaireService interface {
	session.StyleScorer
	Questions(ctx context.Context, userID uuid.UUID) ([]generation.StyleQuestion, error)
}

// QuizService generates, grades and records quizzes.
type QuizService interface {
	session.QuizScorer
	GenerateQuiz(ctx context.Context, userID uuid.UUID, targetPath string) (*domain.Quiz, error)
}

var (
	_ QuestionnaireService = (*service.QuestionnaireService)(nil)
	_ QuizService          = (*service.QuizService)(nil)
)

// Session registries, one per flow.
type (
	QuizRegistry          = session.Registry[session.QuizState, session.Action]
	QuestionnaireRegistry = session.Registry[session.QuestionnaireState, session.Action]
)

// SessionHandler starts and drives quiz and questionnaire sessions.
type SessionHandler struct {
	questionnaire QuestionnaireService
	quizzes       QuizService
	quizSessions  *QuizRegistry
	styleSessions *QuestionnaireRegistry
	logger        *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(
	questionnaire QuestionnaireService,
	quizzes QuizService,
	quizSessions *QuizRegistry,
	styleSessions *QuestionnaireRegistry,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		questionnaire: questionnaire,
		quizzes:       quizzes,
		quizSessions:  quizSessions,
		styleSessions: styleSessions,
		logger:        logger.With(slog.String("component", "session_handler")),
	}
}

type liveSession interface {
	snapshot() SessionResponse
	dispatch(ctx context.Context, a session.Action) (SessionResponse, error)
}

type sessionView[S any] struct {
	s *session.Session[S, session.Action]
}

func publicState(st any) any {
	if p, ok := st.(interface{ Public() any }); ok {
		return p.Public()
	}
	return st
}

func (v sessionView[S]) snapshot() SessionResponse {
	return SessionResponse{
		ID:     v.s.ID,
		Kind:   v.s.Kind,
		State:  publicState(v.s.State()),
		Events: v.s.DrainEvents(),
	}
}

func (v sessionView[S]) dispatch(ctx context.Context, a session.Action) (SessionResponse, error) {
	st, err := v.s.Dispatch(ctx, a)
	resp := SessionResponse{
		ID:     v.s.ID,
		Kind:   v.s.Kind,
		State:  publicState(st),
		Events: v.s.DrainEvents(),
	}
	if err != nil {
		resp.Error = session.UserMessage(err)
	}
	return resp, err
}

func (h *SessionHandler) find(owner, id uuid.UUID) (liveSession, error) {
	quiz, err := h.quizSessions.Get(owner, id)
	if err == nil {
		return sessionView[session.QuizState]{quiz}, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	style, err := h.styleSessions.Get(owner, id)
	if err != nil {
		return nil, err
	}
	return sessionView[session.QuestionnaireState]{style}, nil
}

// Questions handles GET /style/questions.
func (h *SessionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	questions, err := h.questionnaire.Questions(r.Context(), userID)
	respond(w, r, questions, err, "Failed to load questionnaire")
}

// StartQuestionnaire handles POST /sessions/questionnaire.
func (h *SessionHandler) StartQuestionnaire(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	questions, err := h.questionnaire.Questions(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start questionnaire")
		return
	}

	s := session.NewQuestionnaireSession(userID, questions, h.questionnaire)
	h.styleSessions.Add(s)
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("questionnaire session started", "session_id", s.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionView[session.QuestionnaireState]{s}.snapshot())
}

// StartQuiz handles POST /sessions/quiz.
func (h *SessionHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req StartQuizRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quiz, err := h.quizzes.GenerateQuiz(r.Context(), userID, req.TargetPath)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate quiz")
		return
	}

	s := session.NewQuizSession(userID, quiz, h.quizzes)
	h.quizSessions.Add(s)
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("quiz session started",
		"session_id", s.ID, "target_path", req.TargetPath, "questions", len(quiz.Questions))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionView[session.QuizState]{s}.snapshot())
}

// GetSession handles GET /sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, h.logger, paramID)
	if !ok {
		return
	}
	s, err := h.find(userID, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, s.snapshot())
}

// Dispatch handles POST /sessions/{id}/actions. A rejected action still
// answers 200: the unchanged state comes back with a snackbar event.
func (h *SessionHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, h.logger, paramID)
	if !ok {
		return
	}
	var action session.Action
	if !decodeAndValidate(w, r, &action) {
		return
	}
	s, err := h.find(userID, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp, err := s.dispatch(r.Context(), action)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Info("session action rejected",
			"session_id", ids[0], "action", action.Type, "error", err)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
