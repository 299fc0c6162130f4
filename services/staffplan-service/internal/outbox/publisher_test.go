package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(pgx.Tx) error) error { return fn(nil) }

type fakeStore struct {
	records []Record
	marked  []int64
	cutoff  time.Time
}

func (f *fakeStore) FetchUnpublished(_ context.Context, _ db.DBTX, limit int) ([]Record, error) {
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, _ db.DBTX, ids []int64) error {
	f.marked = append(f.marked, ids...)
	return nil
}

func (f *fakeStore) PurgePublished(_ context.Context, _ db.DBTX, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublishBatch(t *testing.T) {
	store := &fakeStore{records: []Record{
		{ID: 1, EventID: "e-1", AggregateID: "7", EventType: UserChanged, Payload: []byte(`{"id":7}`)},
		{ID: 2, EventID: "e-2", AggregateID: "3", EventType: ReportGenerated, Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{}
	p := NewPublisher(fakeTx{}, store, writer, discard(), PublisherConfig{})

	n, err := p.PublishBatch(context.Background())
	if err != nil {
		t.Fatalf("PublishBatch failed: %v", err)
	}
	if n != 2 || len(writer.msgs) != 2 {
		t.Fatalf("expected 2 messages, got n=%d msgs=%d", n, len(writer.msgs))
	}
	if writer.msgs[0].Topic != UserChanged || string(writer.msgs[0].Key) != "7" {
		t.Fatalf("unexpected first message: %+v", writer.msgs[0])
	}
	if got := kafkax.HeaderValue(writer.msgs[1].Headers, kafkax.HeaderEventID); got != "e-2" {
		t.Fatalf("expected event_id header e-2, got %q", got)
	}
	if len(store.marked) != 2 {
		t.Fatalf("expected both rows marked, got %v", store.marked)
	}
}

func TestPublishBatchLeavesRowsOnWriteFailure(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: 1, EventType: UserChanged}}}
	p := NewPublisher(fakeTx{}, store, &fakeWriter{err: errors.New("broker down")}, discard(), PublisherConfig{})

	if _, err := p.PublishBatch(context.Background()); err == nil {
		t.Fatal("expected write error")
	}
	if len(store.marked) != 0 {
		t.Fatalf("rows must stay unpublished, got %v", store.marked)
	}
}

func TestPublishBatchEmpty(t *testing.T) {
	n, err := NewPublisher(fakeTx{}, &fakeStore{}, &fakeWriter{}, discard(), PublisherConfig{}).PublishBatch(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
}

func TestPurgeUsesRetentionWindow(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(fakeTx{}, store, &fakeWriter{}, discard(), PublisherConfig{Retention: 48 * time.Hour})
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	n, err := p.Purge(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("expected 3 purged rows, got n=%d err=%v", n, err)
	}
	if want := now.Add(-48 * time.Hour); !store.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", store.cutoff, want)
	}
}

func TestNewJSONEvent(t *testing.T) {
	evt, err := NewJSONEvent(AggregateReport, "9", ReportGenerated, map[string]int{"report_id": 9})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}
	if evt.ID != "" || evt.AggregateType != AggregateReport || evt.AggregateID != "9" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if string(evt.Payload) != `{"report_id":9}` {
		t.Fatalf("unexpected payload %s", evt.Payload)
	}
}

func TestNewEntityChange(t *testing.T) {
	evt, err := NewEntityChange("user", UserChanged, 42, "deleted")
	if err != nil {
		t.Fatalf("NewEntityChange failed: %v", err)
	}
	if evt.AggregateID != "42" || evt.EventType != UserChanged {
		t.Fatalf("unexpected event: %+v", evt)
	}
	var payload EntityChange
	if err := json.Unmarshal(evt.Payload, &payload); err != nil || payload.Action != "deleted" {
		t.Fatalf("unexpected payload %s (%v)", evt.Payload, err)
	}
}
