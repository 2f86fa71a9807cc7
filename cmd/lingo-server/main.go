package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lingo/internal/async"
	"lingo/internal/config"
	"lingo/internal/logging"
	"lingo/internal/metrics"
	"lingo/internal/provider"
	"lingo/internal/server"
	"lingo/internal/store"
	"lingo/internal/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	logger.Info("starting lingo server (provider=%s)", cfg.AI.Provider)

	ctx := context.Background()
	kv := store.New(ctx, cfg.Redis, logger)

	m := metrics.Default()
	selector := provider.NewSelector(cfg.AI, logger)
	tasks := task.NewStore(kv, cfg.Task.TTL())
	orch := task.NewOrchestrator(selector, tasks, cfg.Task.Workers, cfg.Task.QueueSize, logger, m)

	srv := server.New(cfg.Server, cfg.AI.Provider, orch, kv, logger, m)

	errCh := make(chan error, 1)
	async.Go(logger, "http server", func() {
		errCh <- srv.Start()
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	if err := srv.Stop(); err != nil {
		logger.Error("shutdown: %v", err)
	}
	orch.Close()
	logger.Info("server stopped")
}
