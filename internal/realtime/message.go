package realtime

import "encoding/json"

// Wire message types exchanged on the websocket.
const (
	TypeSubscribe = "subscribe"
	TypeStatus    = "status"
	TypeError     = "error"
)

// Subscription statuses reported to clients.
const (
	StatusSubscribed   = "SUBSCRIBED"
	StatusChannelError = "CHANNEL_ERROR"
	StatusClosed       = "CLOSED"
	StatusTimedOut     = "TIMED_OUT"
)

// Message is the single envelope used in both directions. Type selects which
// fields are meaningful: subscribe carries Tables, status carries Status,
// insert/update/delete carry Table and NewRow.
type Message struct {
	Type   string          `json:"type"`
	Tables []string        `json:"tables,omitempty"`
	Status string          `json:"status,omitempty"`
	Table  string          `json:"table,omitempty"`
	NewRow json.RawMessage `json:"new_row,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// FromChange wraps a broker change for the wire.
func FromChange(c Change) Message {
	return Message{Type: c.Event, Table: c.Table, NewRow: c.NewRow}
}
