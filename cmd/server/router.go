package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/learnflex/learnflex-api/internal/api"
	apiMiddleware "github.com/learnflex/learnflex-api/internal/api/middleware"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func (app *application) setupRouter() http.Handler {
	return newRouter(app.logger, app.handlers, app.jwtService)
}

// newRouter mounts the API behind the shared middleware stack. otelhttp is
// outermost so the trace middleware can reuse the span's trace ID.
func newRouter(logger *slog.Logger, handlers api.Handlers, jwtService auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	handlers.Mount(r, apiMiddleware.NewAuthMiddleware(jwtService).Authenticate)

	return otelhttp.NewHandler(r, "learnflex-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
