package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fitrender/internal/config"
	"fitrender/internal/db"
	"fitrender/internal/handler"
	"fitrender/internal/janitor"
	"fitrender/internal/metrics"
	"fitrender/internal/pipeline"
	"fitrender/internal/storage"
	"fitrender/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fitrender: %v", err)
	}
}

// app holds the long-lived components so they can be shut down in order.
type app struct {
	server  *http.Server
	db      *sql.DB
	handler *handler.Handler
	worker  *worker.Worker
	janitor *janitor.Janitor
}

func run() error {
	cfg := config.Load()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.worker.Start(ctx)
	a.janitor.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting fitrender on %s", cfg.ServerAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	case err := <-errCh:
		a.close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.close(shutdownCtx)
}

func newApp(cfg *config.Config) (*app, error) {
	store := storage.New(cfg.DataDir)
	for _, dir := range []string{store.OriginalsDir(), store.RendersDir()} {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("prepare data dir: %w", err)
		}
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	presets, err := config.LoadPresets(cfg.PresetsPath)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("load presets: %w", err)
	}

	m := metrics.New(database)
	renderer := pipeline.NewRenderer(store, m, cfg.MaxSourceBytes)
	w := worker.NewWorker(renderer, cfg.WorkerCount, cfg.WorkerQueueSize)

	h, err := handler.New(database, store, cfg, presets, renderer, w)
	if err != nil {
		database.Close()
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	h.RegisterRoutes(r)

	j := janitor.New(janitor.Config{
		Store:    store,
		Metrics:  m,
		Interval: time.Duration(cfg.JanitorInterval) * time.Minute,
		CacheTTL: time.Duration(cfg.CacheTTLHours) * time.Hour,
	})

	return &app{
		server: &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
		db:      database,
		handler: h,
		worker:  w,
		janitor: j,
	}, nil
}

// close stops accepting requests, then drains background work. Start must
// have been called on the worker and janitor.
func (a *app) close(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.worker.Stop()
	a.janitor.Stop()
	a.handler.Close()
	if cerr := a.db.Close(); err == nil {
		err = cerr
	}
	log.Println("fitrender stopped")
	return err
}
