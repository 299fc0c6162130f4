package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

type DepartmentRepository struct{}

func scanDepartment(row pgx.Row) (model.Department, error) {
	var d model.Department
	err := row.Scan(&d.ID, &d.Title)
	return d, err
}

func (DepartmentRepository) Insert(ctx context.Context, q db.DBTX, d *model.Department) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO departments (title)
		VALUES ($1)
		RETURNING id
	`, d.Title).Scan(&id)
	return id, classify(err)
}

func (DepartmentRepository) Update(ctx context.Context, q db.DBTX, id int64, d *model.Department) error {
	tag, err := q.Exec(ctx, `UPDATE departments SET title = $2 WHERE id = $1`, id, d.Title)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}

func (DepartmentRepository) Get(ctx context.Context, q db.DBTX, id int64) (model.Department, error) {
	d, err := scanDepartment(q.QueryRow(ctx, `SELECT id, title FROM departments WHERE id = $1`, id))
	return d, classify(err)
}

func (DepartmentRepository) List(ctx context.Context, q db.DBTX) ([]model.Department, error) {
	rows, err := q.Query(ctx, `SELECT id, title FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Rows) (model.Department, error) { return scanDepartment(r) })
}

func (DepartmentRepository) Delete(ctx context.Context, q db.DBTX, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(tag.RowsAffected())
}
