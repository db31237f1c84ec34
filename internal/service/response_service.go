package service

import "time"

// CheckupFilter selects checkups by time range and order.
type CheckupFilter struct {
	From        time.Time // inclusive; zero means no lower bound
	To          time.Time // inclusive; zero means no upper bound
	NewestFirst bool
}
