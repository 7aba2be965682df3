package main

import (
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caasmo/restinpieces"
	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/core"
)

func logEmbeddedAssets(assets fs.FS, cfg *config.Config, logger *slog.Logger) {
	subFS, err := fs.Sub(assets, cfg.PublicDir)
	if err != nil {
		logger.Error("failed to create sub filesystem for logging assets", "error", err)
		return
	}
	assetCount := 0
	fs.WalkDir(subFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			assetCount++
			logger.Debug("embedded asset", "path", path)
		}
		return nil
	})
	logger.Debug("total embedded assets", "count", assetCount)
}

func main() {
	dbfile := flag.String("dbfile", "bench.db", "SQLite database file path")
	flag.Parse()

	cfg, err := config.Load(*dbfile)
	if err != nil {
		slog.Error("failed to load initial config", "error", err)
		os.Exit(1)
	}

	pool, err := restinpieces.NewZombiezenPool(*dbfile)
	if err != nil {
		slog.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}

	app, srv, err := restinpieces.New(
		core.WithConfig(cfg),
		restinpieces.WithDbZombiezen(pool),
		restinpieces.WithRouterServeMux(),
		restinpieces.WithCacheRistretto(cfg.Cache.Level),
		restinpieces.WithTextLogger(nil),
	)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	logger := app.Logger()
	logger.Debug("logging embedded assets", "public_dir", app.Config().PublicDir)
	logEmbeddedAssets(restinpieces.EmbeddedAssets, app.Config(), logger)

	route(app.Config(), app)

	logger.Info("application starting", "addr", app.Config().Server.Addr)
	srv.Run()
	logger.Info("application shut down")
}
