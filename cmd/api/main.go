package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sprawlstats/adapters/api"
	"sprawlstats/adapters/memory"
	"sprawlstats/internal"
	"sprawlstats/internal/config"
	"sprawlstats/internal/engine"
	"sprawlstats/internal/testkit"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)).With("Server")

	results := memory.NewResultStore()
	datasets := memory.NewDatasetRepository()
	eng := engine.NewFromConfig(cfg, results, datasets)
	eng.Open()
	defer eng.Close()

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		ds := testkit.NewExplorationGenerator(testkit.DefaultExplorationConfig()).Generate("demo")
		if err := datasets.Put(context.Background(), ds); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		logger.Info("seeded demo dataset %s (%d points)", ds.ID, ds.Len())
	}

	server := api.NewServer(eng, datasets, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	// no write timeout: /api/events holds the response open
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening on %s (workers enabled=%t, count=%d)", addr, cfg.Workers.Enabled, cfg.Workers.Count)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
