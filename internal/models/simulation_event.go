package models

import "time"

// Simulation event types.
const (
	EventStarted = "started"
	EventStopped = "stopped"
)

// SimulationEvent is a single append-only start/stop record.
type SimulationEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"` // started | stopped
	UserID    string    `json:"user_id"`    // actor email
	Timestamp time.Time `json:"timestamp"`
}
