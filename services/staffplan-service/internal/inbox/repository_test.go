package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB mimics ON CONFLICT DO NOTHING: a repeated id inserts zero rows.
type fakeDB struct {
	seen map[string]bool
	sql  string
	err  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	id := args[0].(string)
	if f.seen[id] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	f.seen[id] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, errors.New("unused") }
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func TestRecordDeduplicates(t *testing.T) {
	q := &fakeDB{seen: map[string]bool{}}
	repo := NewRepository(q)

	ok, err := repo.Record(context.Background(), "0b8f1f64-90a2-4bd4-a4c3-2a5a9e0f7d11", "staffplan.report.requested.v1")
	if err != nil || !ok {
		t.Fatalf("first delivery must be recorded, got ok=%v err=%v", ok, err)
	}
	ok, err = repo.Record(context.Background(), "0b8f1f64-90a2-4bd4-a4c3-2a5a9e0f7d11", "staffplan.report.requested.v1")
	if err != nil || ok {
		t.Fatalf("redelivery must be reported as duplicate, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(q.sql, "ON CONFLICT (event_id) DO NOTHING") {
		t.Fatalf("duplicates must not raise errors: %s", q.sql)
	}
}

func TestRecordRejectsMissingEventID(t *testing.T) {
	q := &fakeDB{seen: map[string]bool{}}
	ok, err := NewRepository(q).Record(context.Background(), "", "staffplan.report.requested.v1")
	if !errors.Is(err, ErrMissingEventID) || ok {
		t.Fatalf("expected ErrMissingEventID, got ok=%v err=%v", ok, err)
	}
	if q.sql != "" {
		t.Fatal("missing id must not reach the database")
	}
}

func TestRecordPropagatesErrors(t *testing.T) {
	repo := NewRepository(&fakeDB{err: errors.New("db down")})
	if _, err := repo.Record(context.Background(), "evt-2", "x"); err == nil {
		t.Fatal("expected error")
	}
}
