package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/go-chi/chi/v5"

	"fitrender/internal/storage"
	"fitrender/internal/worker"
)

// WarmResponse is the JSON body of POST /warm/{name}.
type WarmResponse struct {
	Name     string   `json:"name"`
	Enqueued []string `json:"enqueued"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Warm queues background renders of an original for every preset, or only for
// the preset given with ?preset=.
func (h *Handler) Warm(w http.ResponseWriter, r *http.Request) {
	if h.worker == nil {
		writeError(w, http.StatusServiceUnavailable, "warm-up is disabled")
		return
	}
	name := chi.URLParam(r, "*")

	path, err := storage.OriginalPath(h.storage.BaseDir, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image name")
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	names := make([]string, 0, len(h.presets))
	if only := r.URL.Query().Get("preset"); only != "" {
		if _, ok := h.presets[only]; !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown preset %q", only))
			return
		}
		names = append(names, only)
	} else {
		for p := range h.presets {
			names = append(names, p)
		}
		sort.Strings(names)
	}

	resp := WarmResponse{Name: name, Enqueued: []string{}}
	for _, presetName := range names {
		req, err := h.requestFromPreset(h.presets[presetName])
		if err != nil {
			resp.Skipped = append(resp.Skipped, presetName)
			continue
		}
		err = h.worker.Enqueue(worker.Job{Name: name, Preset: presetName, Request: req})
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrStopped) {
			resp.Skipped = append(resp.Skipped, presetName)
			continue
		}
		resp.Enqueued = append(resp.Enqueued, presetName)
	}

	if len(resp.Enqueued) == 0 && len(resp.Skipped) > 0 {
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}
