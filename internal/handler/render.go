package handler

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fitrender/internal/config"
	"fitrender/internal/metrics"
	"fitrender/internal/pipeline"
	"fitrender/internal/storage"
)

// Render serves GET /render/{name}?w=&h=&fit=&pos=&format=&q=&bg=&rotate=.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	req, err := h.requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveRender(w, r, name, req, metrics.SourceHTTP)
}

// RenderPreset serves GET /presets/{preset}/{name}.
func (h *Handler) RenderPreset(w http.ResponseWriter, r *http.Request) {
	presetName := chi.URLParam(r, "preset")
	name := chi.URLParam(r, "*")

	preset, ok := h.presets[presetName]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown preset %q", presetName))
		return
	}
	req, err := h.requestFromPreset(preset)
	if err != nil {
		log.Printf("preset %s is unusable: %v", presetName, err)
		writeError(w, http.StatusInternalServerError, "preset misconfigured")
		return
	}
	h.serveRender(w, r, name, req, metrics.SourcePreset)
}

func (h *Handler) serveRender(w http.ResponseWriter, r *http.Request, name string, req pipeline.Request, source metrics.Source) {
	out, err := h.renderer.RenderOriginal(r.Context(), name, req, source)
	if err != nil {
		h.renderError(w, r, name, err)
		return
	}

	f, err := os.Open(out.Path)
	if err != nil {
		// pruned between render and open
		log.Printf("open render %s: %v", out.Path, err)
		writeError(w, http.StatusServiceUnavailable, "render evicted, retry")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render unavailable")
		return
	}

	cache := "MISS"
	if out.CacheHit {
		cache = "HIT"
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("ETag", strconv.Quote(out.Key))
	w.Header().Set("X-Cache", cache)
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// renderError maps pipeline and storage errors to HTTP statuses.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid image name")
	case errors.Is(err, pipeline.ErrOriginalNotFound):
		writeError(w, http.StatusNotFound, "image not found")
	case errors.Is(err, pipeline.ErrNotAnImage),
		errors.Is(err, pipeline.ErrTooLarge),
		errors.Is(err, pipeline.ErrInvalidDimensions):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pipeline.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away, nobody to answer
	default:
		log.Printf("render %s failed: %v", name, err)
		writeError(w, http.StatusInternalServerError, "render failed")
	}
}

// requestFromQuery builds a render request from query parameters, filling gaps
// with the configured defaults.
func (h *Handler) requestFromQuery(q url.Values) (pipeline.Request, error) {
	var req pipeline.Request

	width, err := parseSize(q.Get("w"))
	if err != nil {
		return req, fmt.Errorf("w: %w", err)
	}
	height, err := parseSize(q.Get("h"))
	if err != nil {
		return req, fmt.Errorf("h: %w", err)
	}
	fit, pos, err := h.fitAndPosition(q.Get("fit"), q.Get("pos"))
	if err != nil {
		return req, err
	}

	format := h.defaults.format
	if v := q.Get("format"); v != "" {
		if format, err = pipeline.ParseFormat(v); err != nil {
			return req, err
		}
	}

	quality := h.defaults.quality
	if v := q.Get("q"); v != "" {
		if quality, err = strconv.Atoi(v); err != nil || quality < 1 || quality > 100 {
			return req, errors.New("q: must be an integer between 1 and 100")
		}
	}

	bg := h.defaults.background
	if v := q.Get("bg"); v != "" {
		if bg, err = config.ParseColor(v); err != nil {
			return req, fmt.Errorf("bg: %w", err)
		}
	}

	rot := 0
	if v := q.Get("rotate"); v != "" {
		angle, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("rotate: not an integer")
		}
		if rot, err = pipeline.NormalizeRotation(angle); err != nil {
			return req, err
		}
	}

	return pipeline.Request{
		Render: pipeline.RenderOptions{
			Width:      width,
			Height:     height,
			Fit:        fit,
			Position:   pos,
			Background: opaqueFor(format, bg),
			Filter:     h.defaults.filter,
			Rotate:     rot,
		},
		Format:  format,
		Quality: quality,
	}, nil
}

func (h *Handler) requestFromPreset(p config.Preset) (pipeline.Request, error) {
	format := h.defaults.format
	if p.Format != "" {
		f, err := pipeline.ParseFormat(p.Format)
		if err != nil {
			return pipeline.Request{}, err
		}
		format = f
	}
	quality := h.defaults.quality
	if p.Quality > 0 {
		quality = p.Quality
	}
	bg := h.defaults.background
	if p.Background != "" {
		c, err := config.ParseColor(p.Background)
		if err != nil {
			return pipeline.Request{}, err
		}
		bg = c
	}
	rot, err := pipeline.NormalizeRotation(p.Rotate)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Render: pipeline.RenderOptions{
			Width:      p.Width,
			Height:     p.Height,
			Fit:        p.Fit,
			Position:   p.Position,
			Background: opaqueFor(format, bg),
			Filter:     h.defaults.filter,
			Rotate:     rot,
		},
		Format:  format,
		Quality: quality,
	}, nil
}

// opaqueFor substitutes white for a transparent background when the format
// cannot store alpha.
func opaqueFor(f pipeline.Format, bg color.Color) color.Color {
	if bg == nil && f == pipeline.FormatJPEG {
		return color.White
	}
	return bg
}

func parseSize(s string) (int, error) {
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if v < 1 || v > pipeline.MaxDimension {
		return 0, fmt.Errorf("must be between 1 and %d", pipeline.MaxDimension)
	}
	return v, nil
}
