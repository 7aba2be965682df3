// Package dispatcher implements the Dispatcher (spec.md §4.7): the
// reserve-pick-lease-deliver loop that turns queued work items into work
// orders handed to crawler workers.
package dispatcher

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caasmo/restinpieces/account"
	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/crypto"
	"github.com/caasmo/restinpieces/db"
)

// AccountContext is the scraping identity handed to a worker alongside the
// URL to fetch: spec.md §6.2's worker contract needs the account's session
// material to authenticate the outbound scrape.
type AccountContext struct {
	AccountID       string
	SessionMaterial string
}

// WorkOrder is one unit of delivered work: a leased URL, the account to
// scrape it with, and a capability token scoping result submission to this
// job (spec.md §4.1, §6.2).
type WorkOrder struct {
	JobID      string
	URLID      string
	URL        string
	Account    AccountContext
	JobToken   string
	LeaseUntil time.Time
}

// Deliver hands a WorkOrder to a worker. Returning an error nacks the
// underlying queue item so another tick retries it; the in-process test
// double can fail deliveries, the HTTP long-poll responder used in
// production only fails when the client connection is already gone.
type Deliver func(ctx context.Context, order WorkOrder) error

// Dispatcher implements server.Daemon, running cfg.Workers concurrent
// reserve-pick-lease-deliver loops (spec.md §4.7).
type Dispatcher struct {
	cfg      config.Dispatcher
	jwt      config.Jwt
	db       db.Db
	accounts *account.Registry
	deliver  Deliver
	logger   *slog.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

// New builds a Dispatcher. deliver is invoked once per leased URL; it must
// not block indefinitely, as the reserving goroutine is held until it
// returns.
func New(cfg config.Dispatcher, jwtCfg config.Jwt, d db.Db, accounts *account.Registry, deliver Deliver, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:          cfg,
		jwt:          jwtCfg,
		db:           d,
		accounts:     accounts,
		deliver:      deliver,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownDone: make(chan struct{}),
	}
}

// Name identifies this daemon in server logs.
func (d *Dispatcher) Name() string {
	return "job-dispatcher"
}

// Start launches the polling loop in a background goroutine.
func (d *Dispatcher) Start() error {
	go func() {
		d.logger.Info("starting job dispatcher", "poll_interval", d.cfg.PollInterval.Duration, "workers", d.cfg.Workers)
		ticker := time.NewTicker(d.cfg.PollInterval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				d.logger.Info("job dispatcher received shutdown signal")
				close(d.shutdownDone)
				return
			case <-ticker.C:
				d.tick()
			}
		}
	}()
	return nil
}

// Stop signals the loop to exit and waits for in-flight deliveries to
// finish or ctx to expire, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.logger.Info("stopping job dispatcher")
	d.cancel()

	select {
	case <-d.shutdownDone:
		d.logger.Info("job dispatcher stopped gracefully")
		return nil
	case <-ctx.Done():
		d.logger.Info("job dispatcher shutdown timed out")
		return ctx.Err()
	}
}

// tick fans cfg.Workers concurrent reserve-attempts out over one poll
// interval, each trying to reserve and deliver exactly one work item.
func (d *Dispatcher) tick() {
	workers := d.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(d.ctx)
	g.SetLimit(min(workers, runtime.NumCPU()*4))

	for i := 0; i < workers; i++ {
		workerID := workerIDFor(i)
		g.Go(func() error {
			d.reserveAndDeliver(ctx, workerID)
			return nil
		})
	}
	_ = g.Wait()
}

func workerIDFor(i int) string {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return "dispatcher-" + string(letters[i])
	}
	return "dispatcher-n"
}

// reserveAndDeliver implements the per-item body of spec.md §4.7's loop:
// reserve a queue item, resolve the job and an eligible account, lease the
// next URL, mint a capability token and deliver the work order. Every exit
// path acks or nacks the reserved item so it never leaks.
func (d *Dispatcher) reserveAndDeliver(ctx context.Context, workerID string) {
	now := time.Now()
	item, err := d.db.ReserveWorkItem(workerID, now, d.cfg.LeaseDuration.Duration)
	if err != nil {
		if err != db.ErrNotFound {
			d.logger.Error("reserve work item failed", "error", err)
		}
		return
	}

	job, err := d.db.GetJob(item.JobID)
	if err != nil {
		d.logger.Error("dispatcher: job lookup failed, dropping item", "job_id", item.JobID, "error", err)
		_ = d.db.AckWorkItem(item.ID)
		return
	}

	if job.Status == db.JobCancelled || job.Status == db.JobFailed || job.Status == db.JobPaused {
		_ = d.db.AckWorkItem(item.ID)
		return
	}

	acct, ok := d.pickAccount(job, now)
	if !ok {
		_ = d.db.NackWorkItem(item.ID, d.cfg.NoAccountRequeueDelay.Duration, now)
		return
	}

	if err := d.accounts.Reserve(acct.ID, now); err != nil {
		_ = d.db.NackWorkItem(item.ID, d.cfg.AccountBusyRequeueDelay.Duration, now)
		return
	}

	url, err := d.db.LeaseNextURL(job.ID, acct.ID, d.cfg.LeaseDuration.Duration, now)
	if err != nil {
		// No pending URL left for this job: the queue item has nothing to
		// deliver (another dispatcher raced it, or it is fully processed).
		_ = d.db.AckWorkItem(item.ID)
		return
	}

	if job.Status == db.JobPending {
		if _, err := d.db.TransitionJob(job.ID, []db.JobStatus{db.JobPending}, db.JobRunning, now); err != nil {
			d.logger.Error("dispatcher: failed to transition job to running", "job_id", job.ID, "error", err)
		}
	}

	token, err := crypto.IssueJobToken(job.ID, job.UserID, []byte(d.jwt.JobTokenSecret), d.jwt.JobTokenDuration.Duration)
	if err != nil {
		d.logger.Error("dispatcher: failed to mint job token", "job_id", job.ID, "error", err)
		_ = d.db.NackWorkItem(item.ID, d.cfg.AccountBusyRequeueDelay.Duration, now)
		return
	}

	order := WorkOrder{
		JobID:      job.ID,
		URLID:      url.ID,
		URL:        url.URL,
		Account:    AccountContext{AccountID: acct.ID, SessionMaterial: acct.SessionMaterial},
		JobToken:   token,
		LeaseUntil: now.Add(d.cfg.LeaseDuration.Duration),
	}

	if err := d.deliver(ctx, order); err != nil {
		d.logger.Error("dispatcher: delivery failed", "job_id", job.ID, "url_id", url.ID, "error", err)
		_ = d.db.NackWorkItem(item.ID, d.cfg.AccountBusyRequeueDelay.Duration, now)
		return
	}

	_ = d.db.AckWorkItem(item.ID)
}

// pickAccount implements spec.md §4.7's pick_account: restrict to the job's
// selected accounts (or every account the owning user has, when none were
// selected), filter to currently-eligible ones, sort by fewest requests
// today then longest-idle, then pick by rotation or head depending on the
// job's configured selection mode.
func (d *Dispatcher) pickAccount(job *db.Job, now time.Time) (*db.Account, bool) {
	eligible, err := d.accounts.ListEligible(job.UserID, job.Configuration.SelectedAccountIDs, now)
	if err != nil || len(eligible) == 0 {
		return nil, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].RequestsToday != eligible[j].RequestsToday {
			return eligible[i].RequestsToday < eligible[j].RequestsToday
		}
		return eligible[i].LastRequestAt.Before(eligible[j].LastRequestAt)
	})

	if job.Configuration.AccountSelectionMode == "rotation" {
		idx := job.ProcessedURLs % len(eligible)
		return eligible[idx], true
	}
	return eligible[0], true
}
