package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/service"
)

// DashboardService computes learner progress.
type DashboardService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*service.Dashboard, error)
	ProgressReport(ctx context.Context, userID uuid.UUID, w io.Writer) error
}

var _ DashboardService = (*service.DashboardService)(nil)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler serves progress views.
type DashboardHandler struct {
	dashboard DashboardService
	logger    *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboard DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Dashboard handles GET /dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	d, err := h.dashboard.Dashboard(r.Context(), userID)
	respond(w, r, d, err, "Failed to load dashboard")
}

// ProgressReport handles GET /reports/progress. The workbook is built in
// memory first so a failure can still be reported as JSON.
func (h *DashboardHandler) ProgressReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.dashboard.ProgressReport(r.Context(), userID, &buf); err != nil {
		HandleAPIError(w, r, err, "Failed to build progress report")
		return
	}

	name := fmt.Sprintf("learnflex-progress-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	shared.RespondWithAttachment(w, r, xlsxContentType, name, buf.Bytes())
}
