package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type UserRepository struct{}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.job_title, u.department_id`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.JobTitle, &u.DepartmentID)
	return u, err
}

func (UserRepository) Insert(ctx context.Context, q db.DBTX, u *model.User) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, job_title, department_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.FirstName, u.LastName, u.Email, u.JobTitle, u.DepartmentID).Scan(&id)
	return id, classify(err)
}

func (UserRepository) Update(ctx context.Context, q db.DBTX, id int64, u *model.User) error {
	tag, err := q.Exec(ctx, `
		UPDATE users
		SET first_name = $2,
			last_name = $3,
			email = $4,
			job_title = $5,
			department_id = $6
		WHERE id = $1
	`, id, u.FirstName, u.LastName, u.Email, u.JobTitle, u.DepartmentID)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

func (UserRepository) Get(ctx context.Context, q db.DBTX, id int64) (model.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	return u, classify(err)
}

func (UserRepository) List(ctx context.Context, q db.DBTX) ([]model.User, error) {
	rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.User, error) { return scanUser(r) })
}

func (UserRepository) Delete(ctx context.Context, q db.DBTX, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

// ListWithoutCurrentPosition returns users with no position active on asOf.
func (UserRepository) ListWithoutCurrentPosition(ctx context.Context, q db.DBTX, asOf time.Time) ([]model.User, error) {
	rows, err := q.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE NOT EXISTS (
			SELECT 1
			FROM project_positions pp
			WHERE pp.user_id = u.id
				AND pp.position_start_date <= $1
				AND (pp.position_end_date IS NULL OR pp.position_end_date > $1)
		)
		ORDER BY u.id
	`, asOf)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.User, error) { return scanUser(r) })
}

func (UserRepository) ListDetails(ctx context.Context, q db.DBTX) ([]model.UserDetail, error) {
	rows, err := q.Query(ctx, `
		SELECT `+userColumns+`, d.title
		FROM users u
		JOIN departments d ON d.id = u.department_id
		ORDER BY u.id
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.UserDetail, error) {
		var d model.UserDetail
		err := r.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.JobTitle, &d.DepartmentID, &d.DepartmentTitle)
		return d, err
	})
}
