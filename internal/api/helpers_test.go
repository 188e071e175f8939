package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/middleware"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/mocks"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/session"
	"github.com/stretchr/testify/require"
)

const testToken = "test-access-token"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAPI wires handlers over fakes. Nil services panic when reached, so
// each test sets only what it exercises.
type testAPI struct {
	user          uuid.UUID
	auth          AuthService
	profiles      ProfileService
	library       LibraryService
	bundles       BundleReader
	questionnaire QuestionnaireService
	quizzes       QuizService
	dashboard     DashboardService
	sync          SyncManager
	checks        map[string]HealthCheck

	quizSessions  *QuizRegistry
	styleSessions *QuestionnaireRegistry
}

func newTestAPI() *testAPI {
	return &testAPI{
		user:          uuid.New(),
		quizSessions:  session.NewRegistry[session.QuizState, session.Action](time.Minute, discardLogger()),
		styleSessions: session.NewRegistry[session.QuestionnaireState, session.Action](time.Minute, discardLogger()),
	}
}

func (a *testAPI) router() http.Handler {
	log := discardLogger()
	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			if token != testToken {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: a.user}, nil
		},
	}
	h := Handlers{
		Auth:      NewAuthHandler(a.auth, []OwnedSessions{a.quizSessions, a.styleSessions}, log),
		Profile:   NewProfileHandler(a.profiles, log),
		Sessions:  NewSessionHandler(a.questionnaire, a.quizzes, a.quizSessions, a.styleSessions, log),
		Library:   NewLibraryHandler(a.library, a.bundles, log),
		Dashboard: NewDashboardHandler(a.dashboard, log),
		Sync:      NewSyncHandler(a.sync, nil, log),
		Health:    NewHealthHandler(a.checks, log),
	}
	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	h.Mount(r, middleware.NewAuthMiddleware(jwt).Authenticate)
	return r
}

// do sends a request with the test token unless anonymous is set.
func (a *testAPI) do(t *testing.T, method, path string, body any, anonymous ...bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if len(anonymous) == 0 || !anonymous[0] {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	a.router().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, w)
}
