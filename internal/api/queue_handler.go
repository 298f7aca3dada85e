package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/matcher-api/internal/api/shared"
	"github.com/phrazzld/matcher-api/internal/store"
)

// QueueStatsResponse represents the response data for a queue stats request.
type QueueStatsResponse struct {
	Stats []store.QueueStat `json:"stats"`
}

// QueueHandler exposes retry-queue operability endpoints.
type QueueHandler struct {
	queue  store.QueueStore
	logger *slog.Logger
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(queue store.QueueStore, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		queue:  queue,
		logger: logger,
	}
}

// GetStats handles GET /api/queue/stats requests, returning per-kind,
// per-status row counts for the retry queue.
func (h *QueueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read queue stats", err)
		return
	}
	if stats == nil {
		stats = []store.QueueStat{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QueueStatsResponse{Stats: stats})
}
