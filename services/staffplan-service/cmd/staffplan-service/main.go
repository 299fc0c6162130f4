package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/config"
	otelx "github.com/md-rashed-zaman/staffplan/libs/otel"
	"github.com/md-rashed-zaman/staffplan/libs/runtime"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	settings, err := app.SettingsFromEnv()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(settings.ServiceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(settings.ServiceName)
	if err != nil {
		logger.Error("otel config invalid", "err", err)
		os.Exit(1)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	a, err := app.New(ctx, settings, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if config.Bool("MIGRATE_ON_START", true) {
		if err := a.Migrate(ctx); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	handler, err := a.Handler()
	if err != nil {
		logger.Error("http setup failed", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           otelhttp.NewHandler(handler, "staffplan"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.RunBackground(gctx) })
	g.Go(func() error { return runtime.Serve(gctx, srv, logger, 10*time.Second) })
	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "err", err)
		os.Exit(1)
	}
}
