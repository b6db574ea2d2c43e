package janitor

import (
	"context"
	"log"
	"time"

	"fitrender/internal/metrics"
	"fitrender/internal/storage"
)

// Janitor handles periodic pruning of the render cache and old metrics.
type Janitor struct {
	store            *storage.Storage
	metrics          *metrics.Logger
	interval         time.Duration
	cacheTTL         time.Duration
	metricsRetention time.Duration
	tempFileMaxAge   time.Duration
	now              func() time.Time
	stopChan         chan struct{}
	doneChan         chan struct{}
}

// Config holds janitor configuration
type Config struct {
	Store            *storage.Storage
	Metrics          *metrics.Logger
	Interval         time.Duration
	CacheTTL         time.Duration
	MetricsRetention time.Duration
}

// New creates a new Janitor instance
func New(cfg Config) *Janitor {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.MetricsRetention == 0 {
		cfg.MetricsRetention = 90 * 24 * time.Hour
	}

	return &Janitor{
		store:            cfg.Store,
		metrics:          cfg.Metrics,
		interval:         cfg.Interval,
		cacheTTL:         cfg.CacheTTL,
		metricsRetention: cfg.MetricsRetention,
		tempFileMaxAge:   15 * time.Minute,
		now:              func() time.Time { return time.Now().UTC() },
		stopChan:         make(chan struct{}),
		doneChan:         make(chan struct{}),
	}
}

// Start begins the cleanup scheduler in a goroutine
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

// Stop gracefully stops the janitor. Start must have been called.
func (j *Janitor) Stop() {
	close(j.stopChan)
	<-j.doneChan // wait for cleanup to finish
}

// run is the main loop that runs cleanup tasks
func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneChan)

	// Run cleanup immediately on startup
	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopChan:
			log.Println("Janitor: received stop signal, shutting down...")
			return
		case <-ctx.Done():
			log.Println("Janitor: context cancelled, shutting down...")
			return
		}
	}
}

// RunOnce executes all cleanup tasks a single time.
func (j *Janitor) RunOnce(ctx context.Context) {
	log.Println("Janitor: starting cleanup cycle...")
	start := time.Now()

	j.pruneRenders()
	j.deleteOldRenderEvents(ctx)
	j.cleanupTempFiles()

	log.Printf("Janitor: cleanup cycle completed in %v", time.Since(start))
}

// pruneRenders removes cached renders that were not produced or served within
// the cache TTL, along with shard directories left empty.
func (j *Janitor) pruneRenders() {
	removed, err := storage.PruneRenders(j.store.RendersDir(), j.cacheTTL)
	if err != nil {
		log.Printf("Janitor: failed to prune render cache: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Janitor: pruned %d cached renders older than %v", removed, j.cacheTTL)
	}
}

// deleteOldRenderEvents removes render events past the retention window
func (j *Janitor) deleteOldRenderEvents(ctx context.Context) {
	if j.metrics == nil {
		return
	}
	cutoff := j.now().Add(-j.metricsRetention)
	n, err := j.metrics.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("Janitor: failed to delete old render events: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Janitor: deleted %d render events older than %s", n, cutoff.Format(time.DateOnly))
	}
}

// cleanupTempFiles removes temp files of interrupted cache writes
func (j *Janitor) cleanupTempFiles() {
	if err := storage.CleanOrphanedTempFiles(j.store.RendersDir(), j.tempFileMaxAge); err != nil {
		log.Printf("Janitor: failed to cleanup temp files: %v", err)
	}
}
