// Package storage holds the Postgres repositories. Repositories are stateless
// and take the query target explicitly so the same statements run on the pool
// or inside a transaction.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// classify maps driver errors onto the package sentinels, keeping the cause.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case db.IsConflict(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// Store bundles the repositories with the pool they read from.
type Store struct {
	pool *db.Pool

	Departments DepartmentRepository
	Projects    ProjectRepository
	Users       UserRepository
	Positions   PositionRepository
	Reports     ReportRepository
}

func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *db.Pool { return s.pool }

func (s *Store) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return s.pool.InTx(ctx, fn)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.Users.List(ctx, s.pool)
}

func (s *Store) ListUsersWithoutCurrentPosition(ctx context.Context, asOf time.Time) ([]model.User, error) {
	return s.Users.ListWithoutCurrentPosition(ctx, s.pool, asOf)
}

func (s *Store) FetchActiveAndFutureAssignments(ctx context.Context, userID int64, asOf time.Time) ([]model.ProjectPosition, error) {
	return s.Positions.ListActiveAndFuture(ctx, s.pool, userID, asOf)
}

func (s *Store) ListUserDetails(ctx context.Context) ([]model.UserDetail, error) {
	return s.Users.ListDetails(ctx, s.pool)
}

func (s *Store) ListCurrentPositions(ctx context.Context, asOf time.Time) ([]model.PositionDetail, error) {
	return s.Positions.ListCurrent(ctx, s.pool, asOf)
}

func (s *Store) LatestReport(ctx context.Context, typ model.ReportType) (model.Report, error) {
	return s.Reports.Latest(ctx, s.pool, typ)
}

func (s *Store) ReportExistsSince(ctx context.Context, typ model.ReportType, since time.Time) (bool, error) {
	return s.Reports.ExistsSince(ctx, s.pool, typ, since)
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// requireRow turns a zero-row UPDATE or DELETE into ErrNotFound.
func requireRow(affected int64) error {
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func dateOrNil(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
