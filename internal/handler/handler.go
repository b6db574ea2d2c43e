package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"net/http"

	"fitrender/internal/config"
	"fitrender/internal/metrics"
	"fitrender/internal/middleware"
	"fitrender/internal/objectfit"
	"fitrender/internal/pipeline"
	"fitrender/internal/storage"
	"fitrender/internal/worker"
)

type Handler struct {
	db       *sql.DB
	storage  *storage.Storage
	config   *config.Config
	presets  map[string]config.Preset
	metrics  *metrics.Logger
	renderer *pipeline.Renderer
	worker   *worker.Worker
	limiter  *middleware.RateLimiter
	defaults renderDefaults
}

// renderDefaults are the config values used for query parameters a request
// leaves out.
type renderDefaults struct {
	fit        objectfit.FitMode
	position   objectfit.Position
	format     pipeline.Format
	quality    int
	background color.Color
	filter     string
}

// New builds the HTTP handler. renderer may be nil, in which case one is
// created over store. A nil worker disables the warm-up endpoint.
func New(database *sql.DB, store *storage.Storage, cfg *config.Config, presets map[string]config.Preset, renderer *pipeline.Renderer, w *worker.Worker) (*Handler, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	defaults, err := loadDefaults(cfg)
	if err != nil {
		return nil, err
	}
	if presets == nil {
		presets = map[string]config.Preset{}
	}

	m := metrics.New(database)
	if renderer == nil {
		renderer = pipeline.NewRenderer(store, m, cfg.MaxSourceBytes)
	}

	h := &Handler{
		db:       database,
		storage:  store,
		config:   cfg,
		presets:  presets,
		metrics:  m,
		renderer: renderer,
		worker:   w,
		defaults: defaults,
	}

	if cfg.RateLimitRender > 0 {
		trusted, err := middleware.ParseTrustedProxyCIDRs(cfg.TrustedProxies)
		if err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
		h.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimitRender,
			TrustedProxies:    trusted,
		})
	}

	log.Printf("handler: %d presets, default %s %s as %s", len(presets), defaults.fit, defaults.position, defaults.format)
	return h, nil
}

// Close releases background resources held by the handler.
func (h *Handler) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}

func loadDefaults(cfg *config.Config) (renderDefaults, error) {
	d := renderDefaults{quality: cfg.DefaultQuality, filter: cfg.ResampleFilter}
	var err error

	if d.fit, err = objectfit.ParseFitMode(orDefault(cfg.DefaultFit, "contain")); err != nil {
		return d, fmt.Errorf("DEFAULT_FIT: %w", err)
	}
	if d.position, err = objectfit.ParsePosition(cfg.DefaultPosition); err != nil {
		return d, fmt.Errorf("DEFAULT_POSITION: %w", err)
	}
	if d.format, err = pipeline.ParseFormat(orDefault(cfg.DefaultFormat, "webp")); err != nil {
		return d, fmt.Errorf("DEFAULT_FORMAT: %w", err)
	}
	if d.background, err = config.ParseColor(cfg.Background); err != nil {
		return d, fmt.Errorf("BACKGROUND: %w", err)
	}
	if _, err = pipeline.ParseFilter(cfg.ResampleFilter); err != nil {
		return d, fmt.Errorf("RESAMPLE_FILTER: %w", err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
