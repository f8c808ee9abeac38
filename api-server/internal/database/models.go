package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/google/uuid"
)

// schema creates the event journal. Events are append-only and keyed by the
// engine-assigned id so replays of the same event are ignored.
const schema = `
CREATE TABLE IF NOT EXISTS surety_events (
	id          UUID PRIMARY KEY,
	seq         BIGINT NOT NULL,
	type        TEXT NOT NULL,
	flight_id   TEXT,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS surety_events_seq_idx ON surety_events (seq);
CREATE INDEX IF NOT EXISTS surety_events_flight_idx ON surety_events (flight_id) WHERE flight_id IS NOT NULL;
`

// EventRecord is a journaled engine event
type EventRecord struct {
	ID        uuid.UUID
	Seq       uint64
	Type      models.EventType
	FlightID  *string
	Payload   []byte
	CreatedAt time.Time
}

// NewEventRecord converts an engine event into its row form
func NewEventRecord(ev models.Event) (*EventRecord, error) {
	id, err := uuid.Parse(ev.ID)
	if err != nil {
		return nil, fmt.Errorf("event id %q: %w", ev.ID, err)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	rec := &EventRecord{
		ID:        id,
		Seq:       ev.Seq,
		Type:      ev.Type,
		Payload:   payload,
		CreatedAt: ev.CreatedAt,
	}
	if ev.FlightID != "" {
		flightID := ev.FlightID
		rec.FlightID = &flightID
	}
	return rec, nil
}

// Event decodes the stored payload
func (r *EventRecord) Event() (models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal(r.Payload, &ev); err != nil {
		return models.Event{}, fmt.Errorf("failed to decode event %s: %w", r.ID, err)
	}
	return ev, nil
}
