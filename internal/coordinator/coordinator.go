// Package coordinator runs the single coordinating process for one
// datastore: it polls the job queue, farms worker-phase imports out to the
// bounded pool, executes every versioning operation single-threaded through
// the engine, and repairs interrupted jobs on startup.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/solhaug/microstore/internal/audit"
	"github.com/solhaug/microstore/internal/core"
	"github.com/solhaug/microstore/internal/jobqueue"
	"github.com/solhaug/microstore/internal/models"
	"github.com/solhaug/microstore/internal/worker"
)

// workerOperations are the operations with a worker phase before the
// engine adopts their artifacts.
var workerOperations = []models.JobOperation{
	models.OperationAdd,
	models.OperationChange,
	models.OperationPatchMetadata,
}

// activeStatuses are the non-terminal statuses a crashed process can leave
// a job in. Jobs found in these on startup are repaired, never resumed.
var activeStatuses = []models.JobStatus{
	models.JobInitiated,
	models.JobValidating,
	models.JobTransforming,
	models.JobPseudonymizing,
	models.JobConverting,
	models.JobImporting,
}

// Coordinator owns the polling loop.
type Coordinator struct {
	queue        jobqueue.Client
	engine       *core.Engine
	importer     *worker.Importer
	pool         *worker.Pool
	logger       *slog.Logger
	pollInterval time.Duration
	inputDir     string
}

// Options configures a Coordinator.
type Options struct {
	Queue        jobqueue.Client
	Engine       *core.Engine
	Importer     *worker.Importer
	Pool         *worker.Pool
	AuditLog     *audit.Log
	Logger       *slog.Logger
	PollInterval time.Duration
	InputDir     string
}

// New creates a coordinator. When an audit log is given, every terminal
// status the engine or importer reports is also recorded locally; wire it
// by wrapping the queue client before constructing engine and importer
// with NewAuditReporter.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Coordinator{
		queue:        opts.Queue,
		engine:       opts.Engine,
		importer:     opts.Importer,
		pool:         opts.Pool,
		logger:       logger,
		pollInterval: interval,
		inputDir:     opts.InputDir,
	}
}

// Run repairs interrupted jobs, then polls until the context ends. It
// returns early only on a fatal error: a failure inside failure handling
// leaves the filesystem in unknown state and must stop the process.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.recoverInterrupted(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopping, waiting for running imports")
			if err := c.pool.Wait(); err != nil && err != context.Canceled {
				c.logger.Error("worker pool finished with error", "error", err)
			}
			return nil
		case <-ticker.C:
			if err := c.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// recoverInterrupted finds jobs a previous process left in a non-terminal
// status and resolves each to FAILED with a consistent filesystem.
func (c *Coordinator) recoverInterrupted(ctx context.Context) error {
	jobs, err := c.queue.GetJobs(ctx, jobqueue.JobFilter{Statuses: activeStatuses})
	if err != nil {
		return fmt.Errorf("fetch interrupted jobs: %w", err)
	}
	for _, job := range jobs {
		if err := c.engine.FixInterruptedJob(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// tick processes one polling round: dispatch queued jobs, then adopt
// finished worker builds into the datastore.
func (c *Coordinator) tick(ctx context.Context) error {
	queued, err := c.queue.GetJobs(ctx, jobqueue.JobFilter{Statuses: []models.JobStatus{models.JobQueued}})
	if err != nil {
		c.logger.Error("could not fetch queued jobs", "error", err)
		return nil
	}
	for _, job := range queued {
		if err := c.dispatch(ctx, job); err != nil {
			return err
		}
	}

	built, err := c.queue.GetJobs(ctx, jobqueue.JobFilter{
		Statuses:   []models.JobStatus{models.JobBuilt},
		Operations: workerOperations,
	})
	if err != nil {
		c.logger.Error("could not fetch built jobs", "error", err)
		return nil
	}
	for _, job := range built {
		if err := c.engine.HandleJob(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// dispatch routes one queued job. Worker-phase imports go to the pool;
// everything else runs through the engine in the coordinating goroutine,
// which is the datastore's single writer.
func (c *Coordinator) dispatch(ctx context.Context, job *models.Job) error {
	switch job.Operation {
	case models.OperationAdd, models.OperationChange, models.OperationPatchMetadata:
		size := c.inputSize(job.Dataset())
		c.pool.Submit(size, func(workerCtx context.Context) error {
			c.importer.Run(workerCtx, job)
			return nil
		})
		return nil
	case models.OperationGenerateKeys:
		if err := worker.GenerateRSAKeys(c.inputDir); err != nil {
			c.report(ctx, job, models.JobFailed, err.Error())
			return nil
		}
		c.report(ctx, job, models.JobCompleted, "")
		return nil
	default:
		return c.engine.HandleJob(ctx, job)
	}
}

func (c *Coordinator) report(ctx context.Context, job *models.Job, status models.JobStatus, log string) {
	if err := c.queue.UpdateJobStatus(ctx, job.ID, status, log); err != nil {
		c.logger.Error("failed to report job status",
			"job_id", job.ID, "status", string(status), "error", err)
	}
}

// inputSize sums the input bundle's bytes for admission control. Unknown
// inputs are admitted at size zero; validation will fail them properly.
func (c *Coordinator) inputSize(dataset string) int64 {
	var total int64
	for _, candidate := range []string{
		filepath.Join(c.inputDir, dataset+".tar"),
		filepath.Join(c.inputDir, dataset+".tar.gz"),
	} {
		if info, err := os.Stat(candidate); err == nil {
			total += info.Size()
		}
	}
	dir := filepath.Join(c.inputDir, dataset)
	filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
