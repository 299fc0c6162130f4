package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type PositionRepository struct{}

const positionColumns = `pp.id, pp.user_id, pp.project_id, pp.position_start_date, pp.position_end_date, pp.position_title, pp.occupation`

func scanPosition(row pgx.Row, extra ...any) (model.ProjectPosition, error) {
	var (
		p     model.ProjectPosition
		start time.Time
		end   *time.Time
	)
	dest := append([]any{&p.ID, &p.UserID, &p.ProjectID, &start, &end, &p.PositionTitle, &p.Occupation}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.ProjectPosition{}, err
	}
	p.StartDate = model.NewDate(start)
	p.EndDate = model.DateFromPtr(end)
	return p, nil
}

func (PositionRepository) Insert(ctx context.Context, q db.DBTX, p *model.ProjectPosition) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO project_positions
			(user_id, project_id, position_start_date, position_end_date, position_title, occupation)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.UserID, p.ProjectID, p.StartDate.Time, dateOrNil(p.EndDate), p.PositionTitle, p.Occupation).Scan(&id)
	return id, classify(err)
}

func (PositionRepository) Update(ctx context.Context, q db.DBTX, id int64, p *model.ProjectPosition) error {
	tag, err := q.Exec(ctx, `
		UPDATE project_positions
		SET user_id = $2,
			project_id = $3,
			position_start_date = $4,
			position_end_date = $5,
			position_title = $6,
			occupation = $7
		WHERE id = $1
	`, id, p.UserID, p.ProjectID, p.StartDate.Time, dateOrNil(p.EndDate), p.PositionTitle, p.Occupation)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

func (PositionRepository) Get(ctx context.Context, q db.DBTX, id int64) (model.ProjectPosition, error) {
	p, err := scanPosition(q.QueryRow(ctx, `SELECT `+positionColumns+` FROM project_positions pp WHERE pp.id = $1`, id))
	return p, classify(err)
}

func (PositionRepository) List(ctx context.Context, q db.DBTX) ([]model.ProjectPosition, error) {
	rows, err := q.Query(ctx, `SELECT `+positionColumns+` FROM project_positions pp ORDER BY pp.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.ProjectPosition, error) { return scanPosition(r) })
}

func (PositionRepository) Delete(ctx context.Context, q db.DBTX, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM project_positions WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

// ListActiveAndFuture returns the user's positions that are open-ended or end
// after asOf, ordered by start date.
func (PositionRepository) ListActiveAndFuture(ctx context.Context, q db.DBTX, userID int64, asOf time.Time) ([]model.ProjectPosition, error) {
	rows, err := q.Query(ctx, `
		SELECT `+positionColumns+`
		FROM project_positions pp
		WHERE pp.user_id = $1
			AND (pp.position_end_date IS NULL OR pp.position_end_date > $2)
		ORDER BY pp.position_start_date, pp.id
	`, userID, asOf)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.ProjectPosition, error) { return scanPosition(r) })
}

// ListCurrent returns every position active on asOf with its project title.
func (PositionRepository) ListCurrent(ctx context.Context, q db.DBTX, asOf time.Time) ([]model.PositionDetail, error) {
	rows, err := q.Query(ctx, `
		SELECT `+positionColumns+`, p.title
		FROM project_positions pp
		JOIN projects p ON p.id = pp.project_id
		WHERE pp.position_start_date <= $1
			AND (pp.position_end_date IS NULL OR pp.position_end_date > $1)
		ORDER BY pp.user_id, pp.id
	`, asOf)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.PositionDetail, error) {
		var title string
		p, err := scanPosition(r, &title)
		return model.PositionDetail{ProjectPosition: p, ProjectTitle: title}, err
	})
}
