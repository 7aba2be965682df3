// Package reconciler implements the Reconciler (spec.md §4.9): the
// periodic sweeps that repair state no single request-handling code path
// owns — day-boundary counter resets, expired cooldowns, expired leases,
// and jobs whose workers went silent.
package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
)

// Reconciler implements server.Daemon, running the four independent sweeps
// of spec.md §4.9's cadence table, each on its own ticker.
type Reconciler struct {
	cfg           config.Reconciler
	leaseDuration time.Duration
	db            db.Db
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Reconciler. leaseDuration is Dispatcher.LeaseDuration,
// passed in rather than imported so this package has no dependency on the
// dispatcher package — the Reconciler only needs the number.
func New(cfg config.Reconciler, leaseDuration time.Duration, d db.Db, logger *slog.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		cfg:           cfg,
		leaseDuration: leaseDuration,
		db:            d,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Name identifies this daemon in server logs.
func (r *Reconciler) Name() string {
	return "reconciler"
}

// Start launches the four sweep loops in background goroutines.
func (r *Reconciler) Start() error {
	r.logger.Info("starting reconciler",
		"unblock_accounts_interval", r.cfg.UnblockAccountsInterval.Duration,
		"expire_leases_interval", r.cfg.ExpireLeasesInterval.Duration,
		"restart_stalled_jobs_interval", r.cfg.RestartStalledJobsInterval.Duration,
	)

	for _, loop := range []func(){
		r.runUnblockAccounts,
		r.runExpireLeases,
		r.runRestartStalledJobs,
		r.runResetDailyCounters,
	} {
		r.wg.Add(1)
		loop := loop
		go func() {
			defer r.wg.Done()
			loop()
		}()
	}

	return nil
}

// Stop signals every sweep loop to exit and waits for them to report back
// or ctx to expire, whichever comes first.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.logger.Info("stopping reconciler")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Info("reconciler shutdown timed out")
		return ctx.Err()
	}
}

// runUnblockAccounts clears blocked_until/cooldown_until on accounts whose
// deadline has passed, every UnblockAccountsInterval.
func (r *Reconciler) runUnblockAccounts() {
	ticker := time.NewTicker(r.cfg.UnblockAccountsInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			n, err := r.db.UnblockAccounts(time.Now())
			if err != nil {
				r.logger.Error("reconciler: unblock accounts sweep failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("reconciler: unblocked accounts", "count", n)
			}
		}
	}
}

// runExpireLeases reclaims both URL leases (Job Store) and queue item
// leases (C6) that ran past visible_at/leased_until without being
// renewed, every ExpireLeasesInterval.
func (r *Reconciler) runExpireLeases() {
	ticker := time.NewTicker(r.cfg.ExpireLeasesInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			urls, err := r.db.ExpireLeases(now)
			if err != nil {
				r.logger.Error("reconciler: expire URL leases failed", "error", err)
			} else if len(urls) > 0 {
				r.logger.Info("reconciler: expired URL leases", "count", len(urls))
			}

			items, err := r.db.ExpireWorkItemLeases(now)
			if err != nil {
				r.logger.Error("reconciler: expire queue item leases failed", "error", err)
			} else if len(items) > 0 {
				r.logger.Info("reconciler: expired queue item leases", "count", len(items))
			}
		}
	}
}

// runRestartStalledJobs re-evaluates jobs that entered running but saw no
// progress/result within StalledJobMultiplier * lease_duration and have no
// in-flight URLs, every RestartStalledJobsInterval.
func (r *Reconciler) runRestartStalledJobs() {
	ticker := time.NewTicker(r.cfg.RestartStalledJobsInterval.Duration)
	defer ticker.Stop()

	multiplier := r.cfg.StalledJobMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			staleSince := now.Add(-time.Duration(multiplier) * r.leaseDuration)

			jobs, err := r.db.ListStalledJobs(staleSince)
			if err != nil {
				r.logger.Error("reconciler: list stalled jobs failed", "error", err)
				continue
			}

			for _, job := range jobs {
				r.restartJob(job, now)
			}
		}
	}
}

// restartJob sends a stalled job back to pending if URLs remain, or to
// failed if the job is exhausted.
func (r *Reconciler) restartJob(job *db.Job, now time.Time) {
	if job.TotalURLs > job.ProcessedURLs {
		if _, err := r.db.TransitionJob(job.ID, []db.JobStatus{db.JobRunning}, db.JobPending, now); err != nil {
			r.logger.Error("reconciler: failed to revert stalled job to pending", "job_id", job.ID, "error", err)
		}
		return
	}

	if err := r.db.SetJobError(job.ID, "stalled: no progress and no URLs remaining", true, now); err != nil {
		r.logger.Error("reconciler: failed to set stalled job error", "job_id", job.ID, "error", err)
	}
	if _, err := r.db.TransitionJob(job.ID, []db.JobStatus{db.JobRunning}, db.JobFailed, now); err != nil {
		r.logger.Error("reconciler: failed to fail stalled job", "job_id", job.ID, "error", err)
	}
}

// runResetDailyCounters zeroes requests_today for every account once at
// each local midnight. Unlike the other sweeps this isn't a fixed
// interval, so the loop recomputes the wait until the next midnight after
// every fire rather than using a ticker.
func (r *Reconciler) runResetDailyCounters() {
	for {
		wait := time.Until(nextLocalMidnight(time.Now()))
		timer := time.NewTimer(wait)

		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			n, err := r.db.ResetDailyCounters(time.Now())
			if err != nil {
				r.logger.Error("reconciler: reset daily counters failed", "error", err)
				continue
			}
			r.logger.Info("reconciler: reset daily counters", "count", n)
		}
	}
}

func nextLocalMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if !midnight.After(now) {
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight
}
