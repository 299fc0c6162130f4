// Package directory implements create, update, delete and bulk import for the
// company entities. Every write runs in one transaction together with its
// outbox event.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/outbox"
)

const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// Record is the pointer form of an entity.
type Record[T any] interface {
	*T
	Normalize()
	Validate() error
	SetID(id int64)
}

type Table[T any] interface {
	Insert(ctx context.Context, q db.DBTX, v *T) (int64, error)
	Update(ctx context.Context, q db.DBTX, id int64, v *T) error
	Get(ctx context.Context, q db.DBTX, id int64) (T, error)
	List(ctx context.Context, q db.DBTX) ([]T, error)
	Delete(ctx context.Context, q db.DBTX, id int64) error
}

type EventWriter interface {
	Insert(ctx context.Context, q db.DBTX, evt outbox.Event) error
}

// Kind names the aggregate and the event emitted on change.
type Kind struct {
	Aggregate string
	EventType string
}

var (
	Departments = Kind{Aggregate: "department", EventType: outbox.DepartmentChanged}
	Projects    = Kind{Aggregate: "project", EventType: outbox.ProjectChanged}
	Users       = Kind{Aggregate: "user", EventType: outbox.UserChanged}
	Positions   = Kind{Aggregate: "project_position", EventType: outbox.PositionChanged}
)

type Service[T any, P Record[T]] struct {
	kind     Kind
	tx       db.Transactor
	reader   db.DBTX
	table    Table[T]
	events   EventWriter
	logger   *slog.Logger
	onChange []func(context.Context)
}

func New[T any, P Record[T]](kind Kind, tx db.Transactor, reader db.DBTX, table Table[T], events EventWriter, logger *slog.Logger) *Service[T, P] {
	return &Service[T, P]{
		kind:   kind,
		tx:     tx,
		reader: reader,
		table:  table,
		events: events,
		logger: logger.With("aggregate", kind.Aggregate),
	}
}

// OnChange registers fn to run after every committed write.
func (s *Service[T, P]) OnChange(fn func(context.Context)) *Service[T, P] {
	s.onChange = append(s.onChange, fn)
	return s
}

func (s *Service[T, P]) Create(ctx context.Context, v *T) (T, error) {
	if err := prepare[T, P](v); err != nil {
		return *new(T), err
	}
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		id, err := s.table.Insert(ctx, tx, v)
		if err != nil {
			return err
		}
		P(v).SetID(id)
		return s.emit(ctx, tx, id, ActionCreated)
	})
	if err != nil {
		return *new(T), fmt.Errorf("create %s: %w", s.kind.Aggregate, err)
	}
	s.changed(ctx)
	return *v, nil
}

func (s *Service[T, P]) Update(ctx context.Context, id int64, v *T) (T, error) {
	if err := prepare[T, P](v); err != nil {
		return *new(T), err
	}
	P(v).SetID(id)
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.table.Update(ctx, tx, id, v); err != nil {
			return err
		}
		return s.emit(ctx, tx, id, ActionUpdated)
	})
	if err != nil {
		return *new(T), fmt.Errorf("update %s %d: %w", s.kind.Aggregate, id, err)
	}
	s.changed(ctx)
	return *v, nil
}

func (s *Service[T, P]) Get(ctx context.Context, id int64) (T, error) {
	v, err := s.table.Get(ctx, s.reader, id)
	if err != nil {
		return v, fmt.Errorf("get %s %d: %w", s.kind.Aggregate, id, err)
	}
	return v, nil
}

func (s *Service[T, P]) List(ctx context.Context) ([]T, error) {
	out, err := s.table.List(ctx, s.reader)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Aggregate, err)
	}
	return out, nil
}

func (s *Service[T, P]) Delete(ctx context.Context, id int64) error {
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.table.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.emit(ctx, tx, id, ActionDeleted)
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", s.kind.Aggregate, id, err)
	}
	s.changed(ctx)
	return nil
}

// Import validates every item first and then inserts all of them in one
// transaction; one failure rolls back the whole batch.
func (s *Service[T, P]) Import(ctx context.Context, items []T) error {
	for i := range items {
		if err := prepare[T, P](&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		for i := range items {
			id, err := s.table.Insert(ctx, tx, &items[i])
			if err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}
			P(&items[i]).SetID(id)
			if err := s.emit(ctx, tx, id, ActionImported); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", s.kind.Aggregate, err)
	}
	s.logger.Info("import committed", "count", len(items))
	s.changed(ctx)
	return nil
}

func (s *Service[T, P]) emit(ctx context.Context, q db.DBTX, id int64, action string) error {
	evt, err := outbox.NewEntityChange(s.kind.Aggregate, s.kind.EventType, id, action)
	if err != nil {
		return err
	}
	if err := s.events.Insert(ctx, q, evt); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}
	return nil
}

func (s *Service[T, P]) changed(ctx context.Context) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

func prepare[T any, P Record[T]](v *T) error {
	P(v).Normalize()
	return P(v).Validate()
}
