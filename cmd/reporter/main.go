package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/saringan/internal/application"
	"github.com/bryanwahyu/saringan/internal/application/reporting"
	"github.com/bryanwahyu/saringan/internal/config"
	"github.com/bryanwahyu/saringan/internal/domain/analyst"
	"github.com/bryanwahyu/saringan/internal/infra/ai/local"
	"github.com/bryanwahyu/saringan/internal/infra/ai/openai"
	mysqldb "github.com/bryanwahyu/saringan/internal/infra/db/mysql"
	postgresdb "github.com/bryanwahyu/saringan/internal/infra/db/postgres"
	"github.com/bryanwahyu/saringan/internal/infra/queue"
	minioStore "github.com/bryanwahyu/saringan/internal/infra/storage"
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

	logger := logging.Setup("reporter", cfg.Logging.Level, cfg.Logging.Dir)

	// siapkan direktori pipeline
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatalf("ensure dirs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init queue store
	store := queue.NewStore(cfg.QueuePath(), logger)

	builder := &reporting.Builder{
		Queue:        store,
		Clock:        application.SystemClock{},
		ReportsDir:   cfg.ReportsDir(),
		PollInterval: cfg.PollInterval(),
		Log:          logger,
	}

	// connect database (opsional)
	var analystRepo analyst.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		builder.Index = mysqldb.NewReportRepository(db)
		builder.Failures = mysqldb.NewJobErrorRepository(db)
		analystRepo = mysqldb.NewAnalystRepository(db)
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		builder.Index = postgresdb.NewReportRepository(db)
		builder.Failures = postgresdb.NewJobErrorRepository(db)
		analystRepo = postgresdb.NewAnalystRepository(db)
	case "":
		logger.Info("database disabled, report index will not be populated")
	default:
		logger.Fatalf("unsupported database driver: %q", cfg.Database.Driver)
	}

	// init minio (opsional)
	if cfg.Minio.Enabled {
		artifacts, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatalf("minio init error: %v", err)
		}
		builder.Artifacts = artifacts
	}

	// init AI summarizer (opsional)
	if cfg.AI.Enabled {
		if cfg.AI.APIKey != "" {
			builder.Analyst = openai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
		} else {
			logger.Info("ai.api_key not set, using offline summarizer")
			builder.Analyst = local.NewClient()
		}
		builder.AnalystStore = analystRepo
	}

	logger.Infof("reporter starting, poll interval %s", cfg.PollInterval())
	if err := builder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("reporter error: %v", err)
	}
	logger.Info("reporter stopped")
}
