package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fitrender/internal/metrics"
	"fitrender/internal/pipeline"
	"fitrender/internal/storage"
	"fitrender/internal/testutil"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRenderer) RenderOriginal(ctx context.Context, name string, req pipeline.Request, source metrics.Source) (*pipeline.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if source != metrics.SourceWarmup {
		return nil, errors.New("unexpected source " + string(source))
	}
	if f.fail[name] {
		return nil, errors.New("boom")
	}
	return &pipeline.Output{Key: name}, nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestWorker_ProcessesQueuedJobs(t *testing.T) {
	r := &fakeRenderer{fail: map[string]bool{"bad.jpg": true}}
	w := NewWorker(r, 2, 8)

	for _, name := range []string{"a.jpg", "b.jpg", "bad.jpg"} {
		if err := w.Enqueue(Job{Name: name, Preset: "thumb"}); err != nil {
			t.Fatalf("enqueue %s: %v", name, err)
		}
	}

	w.Start(context.Background())
	w.Stop()

	if got := r.callCount(); got != 3 {
		t.Fatalf("expected 3 renders, got %d", got)
	}
	if w.Processed() != 3 {
		t.Errorf("expected 3 processed, got %d", w.Processed())
	}
	if w.Failed() != 1 {
		t.Errorf("expected 1 failed, got %d", w.Failed())
	}
}

func TestWorker_QueueFull(t *testing.T) {
	w := NewWorker(&fakeRenderer{}, 1, 1)

	if err := w.Enqueue(Job{Name: "a.jpg"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := w.Enqueue(Job{Name: "b.jpg"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if w.Pending() != 1 {
		t.Errorf("expected 1 pending, got %d", w.Pending())
	}
}

func TestWorker_EnqueueAfterStop(t *testing.T) {
	w := NewWorker(&fakeRenderer{}, 1, 4)
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	if err := w.Enqueue(Job{Name: "a.jpg"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestWorker_ContextCancelStopsGoroutines(t *testing.T) {
	r := &fakeRenderer{}
	w := NewWorker(r, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutines did not exit after cancel")
	}
}

func TestWorker_WarmsRenderCache(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(dir)
	testutil.WriteOriginalJPEG(t, store, "cat.jpg", 64, 32)

	renderer := pipeline.NewRenderer(store, nil, 1<<20)
	w := NewWorker(renderer, 1, 4)

	req := pipeline.Request{
		Render: pipeline.RenderOptions{Width: 16, Height: 16},
		Format: pipeline.FormatPNG,
	}
	if err := w.Enqueue(Job{Name: "cat.jpg", Preset: "icon", Request: req}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	w.Start(context.Background())
	w.Stop()

	if w.Failed() != 0 {
		t.Fatalf("expected no failures, got %d", w.Failed())
	}

	out, err := renderer.RenderOriginal(context.Background(), "cat.jpg", req, metrics.SourceHTTP)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !out.CacheHit {
		t.Error("expected the warmed render to be served from cache")
	}
}
