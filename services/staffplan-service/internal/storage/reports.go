package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type ReportRepository struct{}

func (ReportRepository) Insert(ctx context.Context, q db.DBTX, r *model.Report) error {
	err := q.QueryRow(ctx, `
		INSERT INTO reports (report_type, binary_data)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, string(r.Type), r.Data).Scan(&r.ID, &r.CreatedAt)
	return classify(err)
}

func (ReportRepository) Latest(ctx context.Context, q db.DBTX, typ model.ReportType) (model.Report, error) {
	var (
		r   model.Report
		raw string
	)
	err := q.QueryRow(ctx, `
		SELECT id, report_type, binary_data, created_at
		FROM reports
		WHERE report_type = $1
		ORDER BY id DESC
		LIMIT 1
	`, string(typ)).Scan(&r.ID, &raw, &r.Data, &r.CreatedAt)
	if err != nil {
		return model.Report{}, classify(err)
	}
	r.Type = model.ReportType(raw)
	return r, nil
}

func (ReportRepository) ExistsSince(ctx context.Context, q db.DBTX, typ model.ReportType, since time.Time) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reports WHERE report_type = $1 AND created_at >= $2
		)
	`, string(typ), since).Scan(&exists)
	return exists, err
}
