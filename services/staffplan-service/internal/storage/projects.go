package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type ProjectRepository struct{}

const projectColumns = `id, title, start_date, end_date`

func scanProject(row pgx.Row) (model.Project, error) {
	var (
		p     model.Project
		start time.Time
		end   *time.Time
	)
	if err := row.Scan(&p.ID, &p.Title, &start, &end); err != nil {
		return model.Project{}, err
	}
	p.StartDate = model.NewDate(start)
	p.EndDate = model.DateFromPtr(end)
	return p, nil
}

func (ProjectRepository) Insert(ctx context.Context, q db.DBTX, p *model.Project) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO projects (title, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, p.Title, p.StartDate.Time, dateOrNil(p.EndDate)).Scan(&id)
	return id, classify(err)
}

func (ProjectRepository) Update(ctx context.Context, q db.DBTX, id int64, p *model.Project) error {
	tag, err := q.Exec(ctx, `
		UPDATE projects
		SET title = $2,
			start_date = $3,
			end_date = $4
		WHERE id = $1
	`, id, p.Title, p.StartDate.Time, dateOrNil(p.EndDate))
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

func (ProjectRepository) Get(ctx context.Context, q db.DBTX, id int64) (model.Project, error) {
	p, err := scanProject(q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	return p, classify(err)
}

func (ProjectRepository) List(ctx context.Context, q db.DBTX) ([]model.Project, error) {
	rows, err := q.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.Project, error) { return scanProject(r) })
}

// Delete also removes the project's positions through ON DELETE CASCADE.
func (ProjectRepository) Delete(ctx context.Context, q db.DBTX, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}
