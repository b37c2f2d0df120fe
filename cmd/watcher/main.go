package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/saringan/internal/application"
	appproducer "github.com/bryanwahyu/saringan/internal/application/producer"
	"github.com/bryanwahyu/saringan/internal/config"
	"github.com/bryanwahyu/saringan/internal/infra/queue"
	"github.com/bryanwahyu/saringan/internal/infra/watch"
	"github.com/bryanwahyu/saringan/internal/logging"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.Watch.Directory == "" {
		log.Fatal("watch.directory not set")
	}

	logger := logging.Setup("watcher", cfg.Logging.Level, cfg.Logging.Dir)

	// siapkan direktori pipeline
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatalf("ensure dirs: %v", err)
	}

	// init queue store
	store := queue.NewStore(cfg.QueuePath(), logger)

	// init producer
	producer := &appproducer.Service{
		Queue:     store,
		IntakeDir: cfg.IntakeDir(),
		Clock:     application.SystemClock{},
		Log:       logger,
	}

	// init watcher
	w := watch.New(watch.Config{
		Directory: cfg.Watch.Directory,
		Recursive: cfg.Watch.Recursive,
		Patterns:  cfg.Watch.FileTypes,
	}, producer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("watching %s (recursive=%v)", cfg.Watch.Directory, cfg.Watch.Recursive)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("watcher error: %v", err)
	}
	logger.Info("watcher stopped")
}
