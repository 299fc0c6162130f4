package report

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/outbox"
)

// Request is the payload of the report requested event.
type Request struct {
	RequestID   string `json:"request_id"`
	ReportType  string `json:"report_type,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Requests queues generation through the outbox so a consumer replica does
// the rendering instead of the API request.
type Requests struct {
	tx     db.Transactor
	events EventWriter
}

func NewRequests(tx db.Transactor, events EventWriter) *Requests {
	return &Requests{tx: tx, events: events}
}

// Request queues typ, or every report type when typ is empty, and returns the
// request id.
func (r *Requests) Request(ctx context.Context, typ model.ReportType, requestedBy string) (string, error) {
	req := Request{RequestID: uuid.NewString(), ReportType: string(typ), RequestedBy: requestedBy}
	evt, err := outbox.NewJSONEvent(outbox.AggregateReportRequest, req.RequestID, outbox.ReportRequested, req)
	if err != nil {
		return "", err
	}
	// The request id doubles as the event id, so the consumer's inbox
	// dedupes on it.
	evt.ID = req.RequestID
	err = r.tx.InTx(ctx, func(tx pgx.Tx) error {
		return r.events.Insert(ctx, tx, evt)
	})
	if err != nil {
		return "", err
	}
	return req.RequestID, nil
}
