package handler

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Health check
	r.Get("/health", h.HealthCheck)

	// Pure geometry, no image involved
	r.Get("/layout", h.Layout)
	r.Get("/stats", h.Stats)

	// Rendering routes decode and resample images, so they are rate limited.
	// Names may contain sub-directories, hence the wildcards.
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware())
		}
		r.Get("/render/*", h.Render)
		r.Get("/presets/{preset}/*", h.RenderPreset)
		r.Post("/warm/*", h.Warm)
	})
}
