package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/api/shared"
	"github.com/learnflex/learnflex-api/internal/docsync"
	"github.com/learnflex/learnflex-api/internal/platform/logger"
)

// SyncManager applies offline batches and reports sync state.
type SyncManager interface {
	Apply(ctx context.Context, userID uuid.UUID, ops []docsync.Operation) (docsync.Status, error)
	Status(userID uuid.UUID) docsync.Status
	Subscribe(userID uuid.UUID) (<-chan docsync.Status, func())
}

var _ SyncManager = (*docsync.Manager)(nil)

const syncWriteTimeout = 5 * time.Second

// SyncHandler serves the offline sync endpoints.
type SyncHandler struct {
	sync           SyncManager
	originPatterns []string
	logger         *slog.Logger
}

// NewSyncHandler creates a SyncHandler. originPatterns lists extra
// websocket origins allowed besides the request host.
func NewSyncHandler(sync SyncManager, originPatterns []string, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:           sync,
		originPatterns: originPatterns,
		logger:         logger.With(slog.String("component", "sync_handler")),
	}
}

// Apply handles POST /sync.
func (h *SyncHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req SyncRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := h.sync.Apply(r.Context(), userID, req.Operations)
	if err != nil {
		HandleAPIError(w, r, err, "Sync failed")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SyncResponse{Status: st})
}

// Status handles GET /sync/status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SyncResponse{Status: h.sync.Status(userID)})
}

// Stream handles GET /sync/stream. It upgrades to a websocket and pushes the
// caller's status on connect and on every change until either side closes.
func (h *SyncHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	updates, cancel := h.sync.Subscribe(userID)
	defer cancel()

	log.Debug("sync stream opened")
	for {
		select {
		case <-ctx.Done():
			log.Debug("sync stream closed", "reason", context.Cause(ctx))
			return
		case st, ok := <-updates:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.write(ctx, conn, st); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("failed to push sync status", "error", err)
				}
				return
			}
		}
	}
}

func (h *SyncHandler) write(ctx context.Context, conn *websocket.Conn, st docsync.Status) error {
	ctx, cancel := context.WithTimeout(ctx, syncWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, st)
}
