package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/saringan/internal/application/triage"
	"github.com/bryanwahyu/saringan/internal/config"
	"github.com/bryanwahyu/saringan/internal/infra/extract"
	"github.com/bryanwahyu/saringan/internal/infra/iocs"
	"github.com/bryanwahyu/saringan/internal/infra/pescan"
	"github.com/bryanwahyu/saringan/internal/infra/quarantine"
	"github.com/bryanwahyu/saringan/internal/infra/queue"
	"github.com/bryanwahyu/saringan/internal/infra/rules"
	"github.com/bryanwahyu/saringan/internal/infra/sniff"
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

	logger := logging.Setup("analyzer", cfg.Logging.Level, cfg.Logging.Dir)

	// siapkan direktori pipeline
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatalf("ensure dirs: %v", err)
	}

	// init queue store
	store := queue.NewStore(cfg.QueuePath(), logger)

	// init analysis facets
	engine := &triage.Engine{
		Sniffer:    sniff.New(),
		Matcher:    rules.Load(cfg.EffectiveRulesDir(), cfg.Analysis.MaxScanBytes, logger),
		Inspector:  pescan.New(),
		Indicators: iocs.New(cfg.Analysis.MaxScanBytes),
		Extractor:  extract.New(cfg.UnpackRootDir(), cfg.Analysis.MaxArchiveMembers, cfg.ExtractorTimeout(), logger),
		MaxDepth:   cfg.Analysis.MaxDepth,
		Log:        logger,
	}

	// init orchestrator
	orch := &triage.Orchestrator{
		Queue:         store,
		Engine:        engine,
		Quarantine:    quarantine.New(cfg.QuarantineDir()),
		IntakeDir:     cfg.IntakeDir(),
		ProcessingDir: cfg.ProcessingDir(),
		OutputDir:     cfg.StaticOutDir(),
		PollInterval:  cfg.PollInterval(),
		Log:           logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run worker pool
	logger.Infof("analyzer starting with %d worker(s), poll interval %s", cfg.Pipeline.Workers, cfg.PollInterval())
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Pipeline.Workers; i++ {
		g.Go(func() error { return orch.Run(ctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("analyzer error: %v", err)
	}
	logger.Info("analyzer stopped")
}
