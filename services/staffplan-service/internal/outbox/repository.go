package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	otelx "github.com/md-rashed-zaman/staffplan/libs/otel"
)

// ErrIncompleteEvent rejects events without an aggregate type or event type.
var ErrIncompleteEvent = errors.New("outbox event needs aggregate and event type")

// Repository stores staffplan events in outbox_events. Event ids are assigned
// here rather than by the database so callers can hand them out (a report
// request id doubles as its event id).
type Repository struct {
	newID func() string
}

func NewRepository() *Repository {
	return &Repository{newID: uuid.NewString}
}

// Insert stores evt with the caller's trace context. Call it inside the
// transaction that makes the change the event describes.
func (r *Repository) Insert(ctx context.Context, q db.DBTX, evt Event) error {
	if evt.AggregateType == "" || evt.EventType == "" {
		return ErrIncompleteEvent
	}
	eventID := evt.ID
	if eventID == "" {
		eventID = r.newID()
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return fmt.Errorf("outbox event id %q: %w", eventID, err)
	}
	payload := evt.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}

	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
	`, eventID, evt.AggregateType, evt.AggregateID, evt.EventType, payload, traceparent, tracestate)
	if err != nil {
		return fmt.Errorf("insert %s event for %s %s: %w", evt.EventType, evt.AggregateType, evt.AggregateID, err)
	}
	return nil
}

// Record is one stored event. Field order matches the FetchUnpublished
// select list.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

// FetchUnpublished locks up to limit pending events, oldest first. Rows locked
// by another publisher are skipped.
func (r *Repository) FetchUnpublished(ctx context.Context, q db.DBTX, limit int) ([]Record, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Record])
}

func (r *Repository) MarkPublished(ctx context.Context, q db.DBTX, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

// PurgePublished deletes events published before cutoff and returns how many
// went. Unpublished events are never removed.
func (r *Repository) PurgePublished(ctx context.Context, q db.DBTX, cutoff time.Time) (int64, error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM outbox_events
		WHERE published_at IS NOT NULL AND published_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
