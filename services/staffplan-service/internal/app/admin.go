package app

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/csvimport"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

// ImportEntities lists the entity names accepted by ImportCSV.
func ImportEntities() []string {
	names := []string{"departments", "projects", "users", "project-positions"}
	sort.Strings(names)
	return names
}

// ImportCSV decodes a CSV file for the named entity and stores every row in
// one transaction. It returns the number of rows imported.
func (a *App) ImportCSV(ctx context.Context, entity string, src io.Reader) (int, error) {
	switch entity {
	case "departments":
		return importWith(ctx, src, csvimport.Departments, a.Departments.Import)
	case "projects":
		return importWith(ctx, src, csvimport.Projects, a.Projects.Import)
	case "users":
		return importWith(ctx, src, csvimport.Users, a.Users.Import)
	case "project-positions":
		return importWith(ctx, src, csvimport.Positions, a.Positions.Import)
	default:
		return 0, fmt.Errorf("%w: unknown entity %q", model.ErrValidation, entity)
	}
}

func importWith[T any](ctx context.Context, src io.Reader, schema csvimport.Schema[T], store func(context.Context, []T) error) (int, error) {
	items, err := csvimport.Decode(src, schema)
	if err != nil {
		return 0, err
	}
	if err := store(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (a *App) GenerateReports(ctx context.Context) ([]model.Report, error) {
	return a.Reports.GenerateAll(ctx)
}

func (a *App) LastReport(ctx context.Context, typ model.ReportType) (model.Report, error) {
	return a.Reports.Last(ctx, typ)
}

func (a *App) Available(ctx context.Context, periodDays int) ([]availability.View, error) {
	return a.Availability.Available(ctx, periodDays)
}
