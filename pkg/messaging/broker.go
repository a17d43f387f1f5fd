package messaging

import (
	"context"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher is the narrow side used by services that only emit events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Scheduling event channels.
const (
	ChannelBooked      = "appointment.booked"
	ChannelCancelled   = "appointment.cancelled"
	ChannelRescheduled = "appointment.rescheduled"
	ChannelSeries      = "appointment.series_created"
	ChannelReminder    = "appointment.reminder"
)

// Event is the envelope published on every scheduling channel.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}
