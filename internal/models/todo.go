package models

import "time"

type Todo struct {
	ID         string    `json:"id"`
	UserID     int       `json:"user_id"`
	Task       string    `json:"task"`
	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
}

// TodoPatch lists the mutable fields of a todo; nil means unchanged.
type TodoPatch struct {
	Task       *string `json:"task,omitempty"`
	IsComplete *bool   `json:"is_complete,omitempty"`
}
