package attendance

import (
	"context"
	"time"
)

type EventType string

const (
	EventClockedIn  EventType = "clocked_in"
	EventClockedOut EventType = "clocked_out"
)

// Event announces a committed attendance write. It is stored in the outbox in the same
// transaction as the write and delivered at least once to the settlement subscribers.
type Event struct {
	ID          string     `json:"id"`
	Type        EventType  `json:"type"`
	EmployeeID  string     `json:"employee_id"`
	RecordID    string     `json:"record_id"`
	Date        time.Time  `json:"date"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Publisher delivers committed events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
