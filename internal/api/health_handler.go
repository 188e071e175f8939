package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/redact"
	"golang.org/x/sync/errgroup"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// HealthHandler reports liveness of the server's dependencies.
type HealthHandler struct {
	checks map[string]HealthCheck
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler over named checks, typically
// "database" and "cache".
func NewHealthHandler(checks map[string]HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger.With(slog.String("component", "health_handler")),
	}
}

// Health handles GET /health. It answers 503 when any check fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	outcomes := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = h.checks[name](ctx)
			return nil
		})
	}
	_ = g.Wait()

	status, code := "ok", http.StatusOK
	for i, name := range names {
		if err := outcomes[i]; err != nil {
			h.logger.Warn("health check failed", "check", name, "error", redact.Error(err))
			results[name] = "unavailable"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	shared.RespondWithJSON(w, r, code, HealthResponse{
		Status:  status,
		Checks:  results,
		Checked: time.Now().UTC(),
	})
}
