package simdash

import "time"

// MutationResult is the envelope returned by validated mutation entry points.
// Success=false with Error set means the call reached the server but the
// business rule rejected it (e.g. "Simulation is already running").
type MutationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CheckupResult is returned by insert_checkup_event.
type CheckupResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Checkup any    `json:"checkup,omitempty"`
}

// ActiveSimulation answers get_active_simulation_id. ID is empty when nothing runs.
type ActiveSimulation struct {
	ID string `json:"id"`
}

// AlertRequest is the payload of the send-critical-alert function.
type AlertRequest struct {
	Temperature  int       `json:"temperature"`
	SimulationID string    `json:"simulation_id"`
	Timestamp    time.Time `json:"timestamp"`
	UserEmail    string    `json:"user_email,omitempty"`
}

// AlertFallback carries the rendered message when delivery failed, so it can be sent by hand.
type AlertFallback struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AlertResult is the response of the send-critical-alert function.
type AlertResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	EmailID  string         `json:"email_id,omitempty"`
	Error    string         `json:"error,omitempty"`
	Details  string         `json:"details,omitempty"`
	Fallback *AlertFallback `json:"fallback,omitempty"`
}
