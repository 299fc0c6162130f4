package outbox

import (
	"encoding/json"
	"strconv"
)

// Event types published by the service. The Kafka topic is the event type.
const (
	DepartmentChanged = "staffplan.department.changed.v1"
	ProjectChanged    = "staffplan.project.changed.v1"
	UserChanged       = "staffplan.user.changed.v1"
	PositionChanged   = "staffplan.position.changed.v1"
	ReportGenerated   = "staffplan.report.generated.v1"
	ReportRequested   = "staffplan.report.requested.v1"
)

// Aggregate types for events that are not entity changes.
const (
	AggregateReport        = "report"
	AggregateReportRequest = "report_request"
)

// Event is a row waiting for the outbox. ID is optional; the repository
// assigns a fresh UUID when it is empty.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// EntityChange is the payload of the *.changed events.
type EntityChange struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
}

func NewEntityChange(aggregateType, eventType string, id int64, action string) (Event, error) {
	payload, err := json.Marshal(EntityChange{ID: id, Action: action})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// NewJSONEvent marshals v as the payload of an event on one aggregate.
func NewJSONEvent(aggregateType, aggregateID, eventType string, v any) (Event, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
