package models

import "time"

// Checkup statuses.
const (
	StatusNormal   = "normal"
	StatusCritical = "critical"
)

// CriticalThreshold is the temperature (inclusive) at which a reading is critical.
const CriticalThreshold = 90

// CheckupEvent is a periodic temperature reading taken while a simulation runs.
type CheckupEvent struct {
	CheckupID    string    `json:"checkup_id"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  int       `json:"temperature"` // 0..100
	Status       string    `json:"status"`      // normal | critical
	SimulationID string    `json:"simulation_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// StatusFor classifies a temperature reading.
func StatusFor(temperature int) string {
	if temperature >= CriticalThreshold {
		return StatusCritical
	}
	return StatusNormal
}
