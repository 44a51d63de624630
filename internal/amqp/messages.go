package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finsight/internal/core"
)

// EventType names what happened to a record.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// RecordEvent announces a change to one user's records. It carries the
// affected period so consumers can rebuild that month without scanning.
type RecordEvent struct {
	Type      EventType  `json:"type"`
	UserID    string     `json:"user_id"`
	Kind      core.Kind  `json:"kind"`
	RecordID  string     `json:"record_id"`
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewRecordEvent builds an event for r. The period is read in loc; a record
// without a date is attributed to the month of at.
func NewRecordEvent(t EventType, userID string, r core.Record, at time.Time, loc *time.Location) RecordEvent {
	date := r.Date
	if date.IsZero() {
		date = at
	}
	p := core.PeriodOf(date, loc)
	return RecordEvent{
		Type:      t,
		UserID:    userID,
		Kind:      r.Kind,
		RecordID:  r.ID,
		Year:      p.Year,
		Month:     p.Month,
		Timestamp: at,
	}
}

// Period returns the month the event affects.
func (e RecordEvent) Period() core.Period {
	return core.Period{Year: e.Year, Month: e.Month}
}

func (e RecordEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == "" {
		return fmt.Errorf("event without user id")
	}
	if !e.Kind.Valid() {
		return core.ErrInvalidKind
	}
	if !e.Period().Valid() {
		return fmt.Errorf("invalid month %d", e.Month)
	}
	return nil
}

func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates a message body.
func RecordEventFromJSON(data []byte) (RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return RecordEvent{}, err
	}
	return e, nil
}
