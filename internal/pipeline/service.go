package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"strconv"
	"time"

	"fitrender/internal/metrics"
	"fitrender/internal/storage"
)

// Renderer renders originals from storage and keeps the encoded results in the
// render cache. It is safe for concurrent use.
type Renderer struct {
	store    *storage.Storage
	metrics  *metrics.Logger
	maxBytes int64
	now      func() time.Time
}

// Output describes a render that is available in the cache.
type Output struct {
	Key         string
	Path        string
	ContentType string
	Format      Format
	Bytes       int
	CacheHit    bool
	// Placement is only known when the render was produced by this call.
	Placement *Placement
}

// DefaultMaxSourceBytes bounds originals when no limit is configured.
const DefaultMaxSourceBytes = 32 << 20

// NewRenderer creates a renderer reading originals of at most maxBytes. A nil
// metrics logger disables event recording.
func NewRenderer(store *storage.Storage, m *metrics.Logger, maxBytes int64) *Renderer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	return &Renderer{
		store:    store,
		metrics:  m,
		maxBytes: maxBytes,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CacheKey returns the render cache key for rendering name with req.
func CacheKey(name string, req Request) string {
	o := req.Render
	rot := o.Rotate
	if n, err := NormalizeRotation(rot); err == nil {
		rot = n
	}
	return storage.RenderKey(name,
		strconv.Itoa(o.Width),
		strconv.Itoa(o.Height),
		o.Fit.String(),
		o.Position.String(),
		colorKey(o.Background),
		o.Filter,
		strconv.Itoa(rot),
		string(req.Format),
		strconv.Itoa(req.Quality),
	)
}

func colorKey(c color.Color) string {
	if c == nil {
		return "none"
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// RenderOriginal returns the cached render of name for req, producing and
// caching it first when needed. Every call is recorded as a metrics event
// tagged with source.
func (r *Renderer) RenderOriginal(ctx context.Context, name string, req Request, source metrics.Source) (*Output, error) {
	start := r.now()
	origPath, err := storage.OriginalPath(r.store.BaseDir, name)
	if err != nil {
		return nil, err
	}
	key := CacheKey(name, req)
	path := storage.RenderPath(r.store.BaseDir, key, string(req.Format))

	if info, err := os.Stat(path); err == nil {
		// refresh mtime so the janitor keeps renders that are still requested
		now := r.now()
		_ = os.Chtimes(path, now, now)
		out := &Output{
			Key:         key,
			Path:        path,
			ContentType: req.Format.ContentType(),
			Format:      req.Format,
			Bytes:       int(info.Size()),
			CacheHit:    true,
		}
		r.record(ctx, name, req, out, start, source)
		return out, nil
	}

	f, err := os.Open(origPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrOriginalNotFound)
		}
		return nil, fmt.Errorf("open original %s: %w", name, err)
	}
	defer f.Close()

	if req.MaxBytes == 0 {
		req.MaxBytes = r.maxBytes
	}
	res, err := Process(ctx, f, req)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	if _, err := SaveResult(r.store, key, res); err != nil {
		return nil, err
	}

	placement := res.Placement
	out := &Output{
		Key:         key,
		Path:        path,
		ContentType: res.ContentType,
		Format:      res.Format,
		Bytes:       len(res.Data),
		Placement:   &placement,
	}
	r.record(ctx, name, req, out, start, source)
	log.Printf("Rendered %s as %s (%dx%d %s, %d bytes)", name, key[:12],
		req.Render.Width, req.Render.Height, req.Render.Fit, out.Bytes)
	return out, nil
}

func (r *Renderer) record(ctx context.Context, name string, req Request, out *Output, start time.Time, source metrics.Source) {
	_ = r.metrics.LogRender(ctx, metrics.RenderEvent{
		Original: name,
		FitMode:  req.Render.Fit.String(),
		Format:   string(out.Format),
		Width:    req.Render.Width,
		Height:   req.Render.Height,
		Bytes:    out.Bytes,
		Duration: r.now().Sub(start),
		CacheHit: out.CacheHit,
		Source:   source,
	})
}
