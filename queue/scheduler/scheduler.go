package scheduler

import (
	"context"
	"errors"
	"runtime"
	"time"

	"log/slog"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/queue/executor"
	"golang.org/x/sync/errgroup"
)

// Scheduler polls notify_jobs on a tick and hands claimed rows to an
// executor.JobExecutor. It implements server.Daemon so it starts and stops
// alongside the HTTP server.
type Scheduler struct {
	// cfg contains the scheduler configuration including interval and max jobs per tick
	cfg config.Scheduler

	// db is the database connection used to fetch and update jobs
	db db.Db

	// exec dispatches a claimed job to the handler registered for its type
	exec executor.JobExecutor

	// ctx is the context used to control the scheduler's lifecycle
	// It allows graceful shutdown when Stop() is called from outside.
	// The context is passed to all job execution goroutines.
	ctx context.Context

	// cancel is the CancelFunc associated with ctx
	// It is called in the Stop method to initiate shutdown of the scheduler
	// and all running jobs.
	cancel context.CancelFunc

	// shutdownDone is a channel that will be closed when the scheduler
	// has completely shut down and all jobs have finished.
	// Used to signal completion of the shutdown process.
	shutdownDone chan struct{}
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg config.Scheduler, db db.Db, exec executor.JobExecutor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cfg:          cfg,
		ctx:          ctx,
		cancel:       cancel,
		db:           db,
		exec:         exec,
		shutdownDone: make(chan struct{}),
	}
}

// Name identifies this daemon in server logs.
func (s *Scheduler) Name() string {
	return "notify-job-scheduler"
}

// Start begins the job scheduler operation by creating a long running
// goroutine that spawns goroutines to handle each claimed job.
func (s *Scheduler) Start() error {
	go func() {
		slog.Info("starting notify job scheduler", "interval", s.cfg.Interval)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				slog.Info("notify job scheduler received shutdown signal")
				close(s.shutdownDone)
				return
			case <-ticker.C:
				s.processJobs()
			}
		}
	}()
	return nil
}

// Stop signals the scheduler to stop and waits for all jobs to complete
// or the context to be canceled, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("stopping notify job scheduler")
	s.cancel()

	select {
	case <-s.shutdownDone:
		slog.Info("notify job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.Info("notify job scheduler shutdown timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) processJobs() {
	now := time.Now()
	jobs, err := s.db.ClaimNotifyJobs(s.cfg.MaxJobsPerTick, now)
	if err != nil {
		slog.Error("failed to claim notify jobs", "err", err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	slog.Debug("claimed notify jobs", "count", len(jobs))

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(runtime.NumCPU() * max(s.cfg.ConcurrencyMultiplier, 1))

	var processed int
	for _, job := range jobs {
		jobCopy := job
		g.Go(func() error {
			jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()

			execErr := s.exec.Execute(jobCtx, *jobCopy)
			if execErr == nil {
				if updateErr := s.db.MarkNotifyJobCompleted(jobCopy.ID, time.Now()); updateErr != nil {
					slog.Error("failed to mark notify job completed", "job_id", jobCopy.ID, "err", updateErr)
				}
				processed++
				return nil
			}

			msg := execErr.Error()
			switch {
			case errors.Is(execErr, context.DeadlineExceeded):
				msg = "timeout: " + msg
			case errors.Is(execErr, context.Canceled):
				msg = "interrupted by shutdown: " + msg
			}
			if updateErr := s.db.MarkNotifyJobFailed(jobCopy.ID, msg, time.Now()); updateErr != nil {
				slog.Error("failed to mark notify job failed", "job_id", jobCopy.ID, "err", updateErr)
			}
			return execErr
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("notify job batch interrupted by shutdown")
		} else {
			slog.Error("error executing notify job batch", "err", err)
		}
	}

	slog.Info("finished processing notify jobs", "success", processed, "total", len(jobs))
}
