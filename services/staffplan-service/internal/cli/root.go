// Package cli implements staffplanctl, the admin command line for the
// staffplan service.
package cli

import (
	"context"
	"io"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/spf13/cobra"
)

// Backend is the part of the service the commands drive.
type Backend interface {
	Migrate(ctx context.Context) error
	ImportCSV(ctx context.Context, entity string, src io.Reader) (int, error)
	GenerateReports(ctx context.Context) ([]model.Report, error)
	LastReport(ctx context.Context, typ model.ReportType) (model.Report, error)
	Available(ctx context.Context, periodDays int) ([]availability.View, error)
}

// App holds what the commands need. Connect is only called by commands that
// talk to the database, so token minting works offline.
type App struct {
	Connect   func(ctx context.Context) (Backend, func(), error)
	JWTSecret string
	JWTIssuer string
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "staffplanctl",
		Short:         "Administer the staffplan service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(app),
		newImportCmd(app),
		newReportCmd(app),
		newTokenCmd(app),
		newAvailableCmd(app),
	)

	return root
}

// withBackend connects, runs fn and releases the connection.
func withBackend(cmd *cobra.Command, app *App, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, closeFn, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, b)
}
