package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/catalog"
	"github.com/fallaxis/jurimetrics/internal/server"
	"github.com/fallaxis/jurimetrics/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the observability server",
	Long: `Serve exposes /healthz and Prometheus /metrics and, when configured,
exports traces over OTLP and hot-reloads the factor catalog on file
changes. It runs until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	shutdown, err := telemetry.Setup(ctx, app.cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(cmd.Context()); err != nil {
			app.logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	if app.cfg.Catalog.Watch && app.cfg.Catalog.Path != "" {
		watcher, err := catalog.NewWatcher(app.cfg.Catalog.Path, app.logger)
		if err != nil {
			return err
		}
		watcher.OnReload(func(cat *catalog.Catalog) {
			if err := app.service.ReloadCatalog(cat); err != nil {
				app.logger.Warn("catalog reload rejected, keeping previous version", zap.Error(err))
			}
		})
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	return server.New(app.cfg.Server.Addr, app.logger).Start(ctx)
}
