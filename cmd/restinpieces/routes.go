package main

import (
	"io/fs"
	"net/http"

	"github.com/caasmo/restinpieces"
	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/core"
	"github.com/caasmo/restinpieces/ratelimit"
	r "github.com/caasmo/restinpieces/router"
)

func route(cfg *config.Config, ap *core.App) {

	// --- file server ---
	subFS, err := fs.Sub(restinpieces.EmbeddedAssets, cfg.PublicDir)
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}

	ffs := http.FileServerFS(subFS)
	ap.Router().Register(
		r.NewRoute("/").WithHandler(ffs).WithMiddleware(
			core.StaticHeadersMiddleware,
			core.GzipMiddleware(subFS),
		),
	)

	// --- api core routes ---
	ap.Router().Register(
		r.NewRoute("/favicon.ico").WithHandlerFunc(core.FaviconHandler),
		r.NewRoute(cfg.Endpoints.ListEndpoints).WithHandlerFunc(ap.ListEndpointsHandler),
		r.NewRoute(cfg.Endpoints.AuthWithPassword).WithHandlerFunc(ap.AuthWithPasswordHandler),
		r.NewRoute("GET /metrics").WithHandlerFunc(ap.MetricsHandler).WithMiddleware(ap.JwtValidate),
	)

	// --- job management, user-token authenticated ---
	ap.Router().Register(
		r.NewRoute(cfg.Endpoints.SubmitJob).WithHandlerFunc(ap.SubmitJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
		r.NewRoute(cfg.Endpoints.GetJob).WithHandlerFunc(ap.GetJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
		r.NewRoute(cfg.Endpoints.PauseJob).WithHandlerFunc(ap.PauseJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
		r.NewRoute(cfg.Endpoints.ResumeJob).WithHandlerFunc(ap.ResumeJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
		r.NewRoute(cfg.Endpoints.CancelJob).WithHandlerFunc(ap.CancelJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
		r.NewRoute(cfg.Endpoints.DeleteJob).WithHandlerFunc(ap.DeleteJobHandler).WithMiddleware(ap.JwtValidate, ap.RateLimit(ratelimit.ClassJobManagement)),
	)

	// --- result ingestion, job-capability-token authenticated ---
	ap.Router().Register(
		r.NewRoute(cfg.Endpoints.ResultsSubmit).WithHandlerFunc(ap.SubmitResultsHandler).WithMiddleware(ap.JobTokenValidate, ap.RateLimit(ratelimit.ClassWorkerRead)),
		r.NewRoute(cfg.Endpoints.ResultsUpload).WithHandlerFunc(ap.ResultsUploadHandler).WithMiddleware(ap.JobTokenValidate, ap.RateLimit(ratelimit.ClassWorkerRead)),
		r.NewRoute(cfg.Endpoints.ResultsProgress).WithHandlerFunc(ap.ResultsProgressHandler).WithMiddleware(ap.JobTokenValidate, ap.RateLimit(ratelimit.ClassWorkerRead)),
		r.NewRoute(cfg.Endpoints.ResultsError).WithHandlerFunc(ap.ResultsErrorHandler).WithMiddleware(ap.JobTokenValidate, ap.RateLimit(ratelimit.ClassWorkerRead)),
		r.NewRoute(cfg.Endpoints.GetResults).WithHandlerFunc(ap.GetResultsHandler).WithMiddleware(ap.JobTokenValidate, ap.RateLimit(ratelimit.ClassWorkerRead)),
	)

	// --- worker long-poll, trusted worker network (see DESIGN.md) ---
	ap.Router().Register(
		r.NewRoute(cfg.Endpoints.WorkPoll).WithHandlerFunc(ap.WorkPollHandler).WithMiddleware(ap.RateLimit(ratelimit.ClassWorkerRead)),
	)
}
