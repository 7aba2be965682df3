package restinpieces

import (
	"log/slog"

	"github.com/caasmo/restinpieces/account"
	"github.com/caasmo/restinpieces/admission"
	"github.com/caasmo/restinpieces/backup"
	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/core"
	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/dispatcher"
	"github.com/caasmo/restinpieces/mail"
	"github.com/caasmo/restinpieces/queue"
	"github.com/caasmo/restinpieces/queue/executor"
	scl "github.com/caasmo/restinpieces/queue/scheduler"
	"github.com/caasmo/restinpieces/ratelimit"
	"github.com/caasmo/restinpieces/reconciler"
	"github.com/caasmo/restinpieces/server"
)

// New builds an App from the given options and the server that will run it.
// db, router, cache, config and logger are all required via options (see
// restinpieces_options.go) - New does not apply any implicit defaults.
func New(opts ...core.Option) (*core.App, *server.Server, error) {
	app, err := core.NewApp(opts...)
	if err != nil {
		return nil, nil, err
	}

	provider := config.NewProvider(app.Config())

	scheduler, err := SetupScheduler(provider, app.Db(), app.Logger())
	if err != nil {
		return nil, nil, err
	}

	srv := server.NewServer(provider, app.Router(), app.Logger())
	srv.AddDaemon(scheduler)

	if app.Config().Litestream.Enabled {
		ls, err := backup.NewLitestream(provider, app.Logger())
		if err != nil {
			return nil, nil, err
		}
		srv.AddDaemon(ls)
	}

	if app.Cache() != nil {
		app.SetRateLimiter(ratelimit.New(app.Cache(), func() config.RateLimits { return app.Config().RateLimits }))
	}

	accounts := account.New(app.Db(), app.Logger(), func() config.Accounts { return app.Config().Accounts })
	app.SetAdmission(admission.New(app.Db(), accounts))

	poller := core.NewWorkPoller(workPollerBuffer)
	app.SetWorkPoller(poller)

	disp := dispatcher.New(app.Config().Dispatcher, app.Config().Jwt, app.Db(), accounts, poller.Deliver, app.Logger())
	srv.AddDaemon(disp)

	rec := reconciler.New(app.Config().Reconciler, app.Config().Dispatcher.LeaseDuration.Duration, app.Db(), app.Logger())
	srv.AddDaemon(rec)

	return app, srv, nil
}

// workPollerBuffer bounds how many reserved-but-undelivered work orders can
// queue up when workers are polling slower than the Dispatcher reserves.
const workPollerBuffer = 64

// SetupScheduler wires the notify_jobs background scheduler: one handler per
// job type, currently just the account-blocked email (spec.md §4.3).
func SetupScheduler(provider *config.Provider, dbase db.Db, logger *slog.Logger) (*scl.Scheduler, error) {
	hdls := make(map[string]executor.JobHandler)

	cfg := provider.Get()
	if (cfg.Smtp != config.Smtp{}) {
		mailer, err := mail.New(provider)
		if err != nil {
			return nil, err
		}
		hdls[queue.JobTypeAccountBlocked] = executor.NewAccountBlockedHandler(mailer)
		logger.Info("registered account blocked notification handler")
	}

	return scl.NewScheduler(cfg.Scheduler, dbase, executor.NewExecutor(hdls)), nil
}
