package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/outbox"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx mimics rollback by restoring the table snapshot when fn fails.
type fakeTx struct {
	table  *fakeTable
	events *fakeEvents
}

func (f fakeTx) InTx(_ context.Context, fn func(pgx.Tx) error) error {
	rows, next, evts := cloneRows(f.table.rows), f.table.next, len(f.events.events)
	if err := fn(nil); err != nil {
		f.table.rows, f.table.next = rows, next
		f.events.events = f.events.events[:evts]
		return err
	}
	return nil
}

func cloneRows(in map[int64]model.Department) map[int64]model.Department {
	out := make(map[int64]model.Department, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type fakeTable struct {
	rows map[int64]model.Department
	next int64
}

func (f *fakeTable) Insert(_ context.Context, _ db.DBTX, d *model.Department) (int64, error) {
	for _, existing := range f.rows {
		if existing.Title == d.Title {
			return 0, storage.ErrConflict
		}
	}
	f.next++
	d.ID = f.next
	f.rows[f.next] = *d
	return f.next, nil
}

func (f *fakeTable) Update(_ context.Context, _ db.DBTX, id int64, d *model.Department) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	f.rows[id] = *d
	return nil
}

func (f *fakeTable) Get(_ context.Context, _ db.DBTX, id int64) (model.Department, error) {
	d, ok := f.rows[id]
	if !ok {
		return d, storage.ErrNotFound
	}
	return d, nil
}

func (f *fakeTable) List(context.Context, db.DBTX) ([]model.Department, error) {
	out := make([]model.Department, 0, len(f.rows))
	for i := int64(1); i <= f.next; i++ {
		if d, ok := f.rows[i]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeTable) Delete(_ context.Context, _ db.DBTX, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeEvents struct {
	events []outbox.Event
}

func (f *fakeEvents) Insert(_ context.Context, _ db.DBTX, evt outbox.Event) error {
	f.events = append(f.events, evt)
	return nil
}

func newDepartments(t *testing.T) (*Service[model.Department, *model.Department], *fakeTable, *fakeEvents, *int) {
	t.Helper()
	table := &fakeTable{rows: map[int64]model.Department{}}
	events := &fakeEvents{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	changes := 0
	svc := New[model.Department](Departments, fakeTx{table: table, events: events}, nil, table, events, logger).
		OnChange(func(context.Context) { changes++ })
	return svc, table, events, &changes
}

func action(t *testing.T, evt outbox.Event) string {
	t.Helper()
	var change outbox.EntityChange
	require.NoError(t, json.Unmarshal(evt.Payload, &change))
	return change.Action
}

func TestCreateGetUpdateDelete(t *testing.T) {
	svc, _, events, changes := newDepartments(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.Department{Title: "  Engineering "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Engineering", created.Title, "input is normalized")

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.Update(ctx, created.ID, &model.Department{Title: "R&D"})
	require.NoError(t, err)
	assert.Equal(t, model.Department{ID: 1, Title: "R&D"}, updated)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.Len(t, events.events, 3)
	assert.Equal(t, []string{ActionCreated, ActionUpdated, ActionDeleted},
		[]string{action(t, events.events[0]), action(t, events.events[1]), action(t, events.events[2])})
	assert.Equal(t, outbox.DepartmentChanged, events.events[0].EventType)
	assert.Equal(t, 3, *changes)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, table, events, _ := newDepartments(t)
	_, err := svc.Create(context.Background(), &model.Department{Title: ""})
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, table.rows)
	assert.Empty(t, events.events)
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	svc, _, _, changes := newDepartments(t)
	_, err := svc.Update(context.Background(), 99, &model.Department{Title: "Ops"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 99), storage.ErrNotFound)
	assert.Zero(t, *changes)
}

func TestImportIsAllOrNothing(t *testing.T) {
	svc, table, events, _ := newDepartments(t)
	ctx := context.Background()

	err := svc.Import(ctx, []model.Department{{Title: "A"}, {Title: "B"}, {Title: "A"}})
	require.ErrorIs(t, err, storage.ErrConflict)
	assert.Empty(t, table.rows, "failed import must roll back")
	assert.Empty(t, events.events)

	err = svc.Import(ctx, []model.Department{{Title: "A"}, {Title: ""}})
	require.True(t, errors.Is(err, model.ErrValidation))
	assert.Contains(t, err.Error(), "item 2")

	require.NoError(t, svc.Import(ctx, []model.Department{{Title: "A"}, {Title: "B"}}))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.Len(t, events.events, 2)
	assert.Equal(t, ActionImported, action(t, events.events[1]))
}
