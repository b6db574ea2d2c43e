package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"fitrender/internal/metrics"
	"fitrender/internal/pipeline"
)

var (
	ErrQueueFull = errors.New("warm-up queue is full")
	ErrStopped   = errors.New("worker stopped")
)

// Job asks for one original to be rendered ahead of time.
type Job struct {
	Name    string
	Preset  string
	Request pipeline.Request
}

// Renderer produces and caches renders. *pipeline.Renderer satisfies it.
type Renderer interface {
	RenderOriginal(ctx context.Context, name string, req pipeline.Request, source metrics.Source) (*pipeline.Output, error)
}

// Worker warms the render cache in the background from a bounded queue.
type Worker struct {
	renderer Renderer
	count    int
	jobs     chan Job

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

// NewWorker creates a worker with count goroutines and room for queueSize
// pending jobs.
func NewWorker(r Renderer, count, queueSize int) *Worker {
	if count < 1 {
		count = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		renderer: r,
		count:    count,
		jobs:     make(chan Job, queueSize),
	}
}

// Start runs the worker goroutines until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	log.Printf("Worker: started %d warm-up goroutines", w.count)

	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-w.jobs:
					if !ok {
						return
					}
					w.process(ctx, job)
				}
			}
		}()
	}
}

// Enqueue adds a job without blocking. It fails with ErrQueueFull when the
// queue has no room and with ErrStopped after Stop.
func (w *Worker) Enqueue(job Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for the goroutines to drain it. Jobs left
// when the context passed to Start is cancelled are dropped.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.jobs)
	}
	w.mu.Unlock()

	log.Println("Worker: waiting for active jobs to finish...")
	w.wg.Wait()
	log.Println("Worker: stopped")
}

// Pending returns the number of queued jobs.
func (w *Worker) Pending() int {
	return len(w.jobs)
}

// Processed returns the number of finished jobs, failed ones included.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Failed returns the number of jobs whose render returned an error.
func (w *Worker) Failed() int64 { return w.failed.Load() }

func (w *Worker) process(ctx context.Context, job Job) {
	out, err := w.renderer.RenderOriginal(ctx, job.Name, job.Request, metrics.SourceWarmup)
	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		log.Printf("Worker: warm-up of %s (preset %s) failed: %v", job.Name, job.Preset, err)
		return
	}
	if !out.CacheHit {
		log.Printf("Worker: warmed %s (preset %s)", job.Name, job.Preset)
	}
}
