// Package inbox remembers which Kafka events the service already handled.
package inbox

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/staffplan/libs/db"
)

// ErrMissingEventID is returned for deliveries with neither an event id header
// nor a message key. They cannot be deduplicated.
var ErrMissingEventID = errors.New("event has no id")

type Repository struct {
	q db.DBTX
}

func NewRepository(q db.DBTX) *Repository {
	return &Repository{q: q}
}

// Record claims eventID for this service. It returns false when the event
// was claimed before, which for report requests means the request id was
// already processed.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	if eventID == "" {
		return false, ErrMissingEventID
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
