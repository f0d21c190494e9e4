// Command microstore-coordinator runs the single coordinating process for
// one datastore: polling the job queue, importing input bundles through the
// worker pool, and executing versioning operations through the engine.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/solhaug/microstore/internal/audit"
	"github.com/solhaug/microstore/internal/config"
	"github.com/solhaug/microstore/internal/coordinator"
	"github.com/solhaug/microstore/internal/core"
	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/jobqueue"
	"github.com/solhaug/microstore/internal/pseudonym"
	"github.com/solhaug/microstore/internal/worker"
)

func main() {
	cfg, err := config.LoadCoordinator()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.DatastoreRoot == "" || cfg.InputDir == "" || cfg.WorkingDir == "" {
		logger.Error("MICROSTORE_DATASTORE_ROOT, MICROSTORE_INPUT_DIR and MICROSTORE_WORKING_DIR are required")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.WorkingDir, 0o755); err != nil {
		logger.Error("failed to create working directory", "error", err, "path", cfg.WorkingDir)
		os.Exit(1)
	}

	ds, err := datastore.Open(cfg.DatastoreRoot)
	if err != nil {
		logger.Error("failed to open datastore", "error", err, "root", cfg.DatastoreRoot)
		os.Exit(1)
	}

	auditLog, err := audit.Open(filepath.Join(cfg.DatastoreRoot, config.DatastoreDir, "audit.db"))
	if err != nil {
		logger.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	queue := jobqueue.NewRetryClient(jobqueue.NewHTTPClient(cfg.JobServiceURL), nil)
	reporter := coordinator.NewAuditReporter(queue, auditLog, logger)

	engine := core.NewEngine(ds, reporter, logger, core.Options{
		WorkingDir:      cfg.WorkingDir,
		InputArchiveDir: filepath.Join(cfg.InputDir, "archive"),
	})

	builder := worker.NewFSBuilder(cfg.InputDir)
	pseudonymizer := pseudonym.NewHTTPClient(cfg.PseudonymServiceURL)
	importer := worker.NewImporter(builder, pseudonymizer, reporter, cfg.WorkingDir, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(ctx, cfg.MaxWorkers, cfg.MaxWorkerInputBytes)

	c := coordinator.New(coordinator.Options{
		Queue:        reporter,
		Engine:       engine,
		Importer:     importer,
		Pool:         pool,
		AuditLog:     auditLog,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
		InputDir:     cfg.InputDir,
	})

	logger.Info("starting coordinator",
		"datastore_root", cfg.DatastoreRoot,
		"job_service", cfg.JobServiceURL,
		"poll_interval", cfg.PollInterval.String(),
		"max_workers", cfg.MaxWorkers)

	if err := c.Run(ctx); err != nil {
		logger.Error("coordinator stopped on fatal error", "error", err)
		os.Exit(1)
	}
	logger.Info("coordinator stopped")
}

func newLogger(level, format string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: l}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
