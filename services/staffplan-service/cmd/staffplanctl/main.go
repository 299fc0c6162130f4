package main

import (
	"context"
	"fmt"
	"os"

	"github.com/md-rashed-zaman/staffplan/libs/config"
	"github.com/md-rashed-zaman/staffplan/libs/runtime"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/app"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Load(); err != nil {
		return err
	}
	settings, err := app.SettingsFromEnv()
	if err != nil {
		return err
	}
	logger := runtime.NewLoggerWithOptions("staffplanctl", runtime.LogOptions{
		Level:  config.String("LOG_LEVEL", "warn"),
		Format: "text",
		Output: os.Stderr,
	})

	ctl := &cli.App{
		Connect: func(ctx context.Context) (cli.Backend, func(), error) {
			a, err := app.New(ctx, settings, logger)
			if err != nil {
				return nil, nil, err
			}
			return a, a.Close, nil
		},
		JWTSecret: settings.JWTSecret,
		JWTIssuer: settings.JWTIssuer,
	}
	return cli.NewRootCmd(ctl).ExecuteContext(context.Background())
}
