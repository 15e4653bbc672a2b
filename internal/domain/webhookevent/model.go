package webhookevent

import "time"

// Event records a processed provider event id so redeliveries are acknowledged
// without being re-applied, even across server instances.
type Event struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	ReceivedAt time.Time `db:"received_at"`
}
