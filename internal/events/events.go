// Package events carries booking lifecycle events from the API to the
// notification worker, through RabbitMQ or an in-process queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated        = "booking.created"
	BookingStatusChanged  = "booking.status_changed"
	BookingDriverAssigned = "booking.driver_assigned"
	BookingBroadcast      = "booking.broadcast"

	// BindingKey matches every booking event on the topic exchange.
	BindingKey = "booking.#"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BookingID  int64     `json:"booking_id"`
	DriverID   int64     `json:"driver_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	PrevStatus string    `json:"prev_status,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event of kind typ for bookingID.
func New(typ string, bookingID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" || e.BookingID <= 0 {
		return Event{}, fmt.Errorf("decode event: missing type or booking id")
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler func(ctx context.Context, e Event) error

// Nop discards events. Used when notifications are disabled and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
