package metrics

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"fitrender/internal/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestLogRender(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	logger := New(database)

	err := logger.LogRender(ctx, RenderEvent{
		Original: "a.jpg",
		FitMode:  "cover",
		Format:   "webp",
		Width:    200,
		Height:   100,
		Bytes:    1234,
		Duration: 25 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("LogRender: %v", err)
	}

	var (
		original, fit, source string
		durationMs, hit       int64
	)
	err = database.QueryRow(`SELECT original, fit_mode, source, duration_ms, cache_hit FROM render_events`).
		Scan(&original, &fit, &source, &durationMs, &hit)
	if err != nil {
		t.Fatalf("query event: %v", err)
	}
	if original != "a.jpg" || fit != "cover" {
		t.Fatalf("unexpected event %s %s", original, fit)
	}
	if source != string(SourceHTTP) {
		t.Fatalf("expected default source http, got %s", source)
	}
	if durationMs != 25 || hit != 0 {
		t.Fatalf("unexpected duration/hit %d/%d", durationMs, hit)
	}
}

func TestLogRender_NilLogger(t *testing.T) {
	var l *Logger
	if err := l.LogRender(context.Background(), RenderEvent{}); err != nil {
		t.Fatalf("expected nil logger to be a no-op, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	logger := New(database)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return now }

	events := []RenderEvent{
		{Original: "a.jpg", FitMode: "cover", Format: "webp", Bytes: 100, Duration: 10 * time.Millisecond, At: now.Add(-time.Hour)},
		{Original: "a.jpg", FitMode: "cover", Format: "webp", Bytes: 100, CacheHit: true, At: now.Add(-2 * time.Hour)},
		{Original: "b.jpg", FitMode: "contain", Format: "png", Bytes: 50, Duration: 30 * time.Millisecond, Source: SourceWarmup, At: now.Add(-24 * time.Hour)},
		{Original: "c.jpg", FitMode: "none", Format: "jpeg", Bytes: 10, At: now.Add(-10 * 24 * time.Hour)},
		{Original: "d.jpg", FitMode: "fill", Format: "jpeg", Bytes: 10, At: now.Add(-40 * 24 * time.Hour)},
	}
	for _, ev := range events {
		if err := logger.LogRender(ctx, ev); err != nil {
			t.Fatalf("LogRender: %v", err)
		}
	}

	stats, err := logger.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Renders7Days != 3 {
		t.Errorf("Renders7Days = %d, want 3", stats.Renders7Days)
	}
	if stats.Renders30Days != 4 {
		t.Errorf("Renders30Days = %d, want 4", stats.Renders30Days)
	}
	if stats.CacheHits7Days != 1 {
		t.Errorf("CacheHits7Days = %d, want 1", stats.CacheHits7Days)
	}
	if stats.Bytes7Days != 250 {
		t.Errorf("Bytes7Days = %d, want 250", stats.Bytes7Days)
	}
	if stats.AvgDurationMs != 20 {
		t.Errorf("AvgDurationMs = %v, want 20", stats.AvgDurationMs)
	}
	if stats.ByFitMode["cover"] != 2 || stats.ByFitMode["none"] != 1 || stats.ByFitMode["fill"] != 0 {
		t.Errorf("unexpected ByFitMode %v", stats.ByFitMode)
	}
	if stats.BySource["warmup"] != 1 || stats.BySource["http"] != 3 {
		t.Errorf("unexpected BySource %v", stats.BySource)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	logger := New(database)
	now := time.Now().UTC()

	for _, at := range []time.Time{now, now.Add(-100 * 24 * time.Hour), now.Add(-200 * 24 * time.Hour)} {
		if err := logger.LogRender(ctx, RenderEvent{Original: "x", FitMode: "fill", Format: "png", At: at}); err != nil {
			t.Fatalf("LogRender: %v", err)
		}
	}

	n, err := logger.DeleteOlderThan(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", n)
	}
}
