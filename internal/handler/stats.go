package handler

import (
	"log"
	"net/http"

	"fitrender/internal/metrics"
)

// StatsResponse is the JSON body of GET /stats.
type StatsResponse struct {
	Renders *metrics.Stats `json:"renders"`
	Queue   *QueueStats    `json:"queue,omitempty"`
}

type QueueStats struct {
	Pending   int   `json:"pending"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.metrics.GetStats(r.Context())
	if err != nil {
		log.Printf("get stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	resp := StatsResponse{Renders: stats}
	if h.worker != nil {
		resp.Queue = &QueueStats{
			Pending:   h.worker.Pending(),
			Processed: h.worker.Processed(),
			Failed:    h.worker.Failed(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
