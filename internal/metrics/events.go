package metrics

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// Source identifies what triggered a render.
type Source string

const (
	SourceHTTP   Source = "http"
	SourcePreset Source = "preset"
	SourceWarmup Source = "warmup"
)

// RenderEvent describes one served or produced render.
type RenderEvent struct {
	Original string
	FitMode  string
	Format   string
	Width    int
	Height   int
	Bytes    int
	Duration time.Duration
	CacheHit bool
	Source   Source
	At       time.Time
}

// Logger records render events in the render_events table.
type Logger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new metrics logger
func New(db *sql.DB) *Logger {
	return &Logger{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// LogRender inserts a render event. Failures are logged and returned but
// callers normally ignore them; metrics never fail a render.
func (l *Logger) LogRender(ctx context.Context, ev RenderEvent) error {
	if l == nil || l.db == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = l.now()
	}
	source := ev.Source
	if source == "" {
		source = SourceHTTP
	}
	hit := 0
	if ev.CacheHit {
		hit = 1
	}

	_, err := l.db.ExecContext(ctx, `INSERT INTO render_events
        (original, fit_mode, format, width, height, bytes, duration_ms, cache_hit, source, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Original, ev.FitMode, ev.Format, ev.Width, ev.Height, ev.Bytes,
		ev.Duration.Milliseconds(), hit, string(source), at.Unix())
	if err != nil {
		log.Printf("metrics: failed to log render of %s: %v", ev.Original, err)
	}
	return err
}

// Stats holds aggregated metrics
type Stats struct {
	Renders7Days   int64            `json:"renders_7d"`
	Renders30Days  int64            `json:"renders_30d"`
	CacheHits7Days int64            `json:"cache_hits_7d"`
	Bytes7Days     int64            `json:"bytes_7d"`
	AvgDurationMs  float64          `json:"avg_duration_ms_7d"`
	ByFitMode      map[string]int64 `json:"by_fit_mode_30d"`
	BySource       map[string]int64 `json:"by_source_30d"`
}

// GetStats retrieves render statistics for the last 7 and 30 days.
func (l *Logger) GetStats(ctx context.Context) (*Stats, error) {
	now := l.now()
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour).Unix()
	thirtyDaysAgo := now.Add(-30 * 24 * time.Hour).Unix()

	stats := &Stats{
		ByFitMode: map[string]int64{},
		BySource:  map[string]int64{},
	}

	var avg sql.NullFloat64
	err := l.db.QueryRowContext(ctx, `SELECT
            COUNT(*),
            COALESCE(SUM(cache_hit), 0),
            COALESCE(SUM(bytes), 0),
            AVG(CASE WHEN cache_hit = 0 THEN duration_ms END)
        FROM render_events WHERE created_at >= ?`, sevenDaysAgo).
		Scan(&stats.Renders7Days, &stats.CacheHits7Days, &stats.Bytes7Days, &avg)
	if err != nil {
		return nil, err
	}
	stats.AvgDurationMs = avg.Float64

	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM render_events WHERE created_at >= ?`, thirtyDaysAgo).
		Scan(&stats.Renders30Days); err != nil {
		return nil, err
	}

	if err := l.countBy(ctx, "fit_mode", thirtyDaysAgo, stats.ByFitMode); err != nil {
		return nil, err
	}
	if err := l.countBy(ctx, "source", thirtyDaysAgo, stats.BySource); err != nil {
		return nil, err
	}

	return stats, nil
}

// countBy groups events since the given unix time by column. column is always
// a constant from this package.
func (l *Logger) countBy(ctx context.Context, column string, since int64, into map[string]int64) error {
	rows, err := l.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM render_events
        WHERE created_at >= ? GROUP BY `+column, since)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// DeleteOlderThan removes events recorded before cutoff and returns how many
// rows were deleted.
func (l *Logger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM render_events WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
