package models

import "time"

// CommandEvent is a single entry of the command audit log.
type CommandEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // ACCEPTED | FAILED | CONFIRMED | UNCONFIRMED | SUPERSEDED
	Command     Command   `json:"command"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
