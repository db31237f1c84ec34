package dashboard

import (
	"math"
	"sort"
	"time"

	"simdash/internal/models"
)

// Simulation run states.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// SimulationStatus is derived from the simulation event log.
// Nil times and empty names mean "not known".
type SimulationStatus struct {
	Status    string     `json:"status"`
	StartTime *time.Time `json:"start_time"`
	StopTime  *time.Time `json:"stop_time"`
	StartedBy string     `json:"started_by"`
	StoppedBy string     `json:"stopped_by"`
}

// Running reports whether the latest event is a start.
func (s SimulationStatus) Running() bool { return s.Status == StatusRunning }

// TemperatureStats summarises the checkups in view. All fields are zero for no readings.
type TemperatureStats struct {
	Current       int        `json:"current"`
	Average       int        `json:"average"`
	Min           int        `json:"min"`
	Max           int        `json:"max"`
	CriticalCount int        `json:"critical_count"`
	NormalCount   int        `json:"normal_count"`
	LastUpdated   *time.Time `json:"last_updated"`
}

// TimelinePoint is one step of the run/stop chart: 1 while running, 0 when stopped.
type TimelinePoint struct {
	Time      time.Time `json:"time"`
	Value     int       `json:"value"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
}

// TodoSummary partitions todos by completion.
type TodoSummary struct {
	Pending   []models.Todo `json:"pending"`
	Completed []models.Todo `json:"completed"`
	Total     int           `json:"total"`
}

// newestFirst returns a copy of events ordered by timestamp descending.
// Events with equal timestamps keep their input order.
func newestFirst(events []models.SimulationEvent) []models.SimulationEvent {
	out := append([]models.SimulationEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// DeriveStatus computes the current run state from events in any order.
// On equal timestamps the event listed first wins.
func DeriveStatus(events []models.SimulationEvent) SimulationStatus {
	st := SimulationStatus{Status: StatusStopped}
	if len(events) == 0 {
		return st
	}
	sorted := newestFirst(events)
	latest := sorted[0]
	ts := latest.Timestamp

	if latest.EventType == models.EventStarted {
		st.Status = StatusRunning
		st.StartTime = &ts
		st.StartedBy = latest.UserID
		return st
	}

	st.StopTime = &ts
	st.StoppedBy = latest.UserID
	for _, e := range sorted[1:] {
		if e.EventType == models.EventStarted {
			start := e.Timestamp
			st.StartTime = &start
			st.StartedBy = e.UserID
			break
		}
	}
	return st
}

// ComputeTemperatureStats summarises readings given oldest first; Current is the last one.
func ComputeTemperatureStats(checkups []models.CheckupEvent) TemperatureStats {
	var st TemperatureStats
	if len(checkups) == 0 {
		return st
	}
	st.Min, st.Max = checkups[0].Temperature, checkups[0].Temperature
	sum := 0
	for _, c := range checkups {
		sum += c.Temperature
		st.Min = min(st.Min, c.Temperature)
		st.Max = max(st.Max, c.Temperature)
		switch c.Status {
		case models.StatusCritical:
			st.CriticalCount++
		case models.StatusNormal:
			st.NormalCount++
		}
	}
	last := checkups[len(checkups)-1]
	st.Current = last.Temperature
	ts := last.Timestamp
	st.LastUpdated = &ts
	st.Average = int(math.Floor(float64(sum)/float64(len(checkups)) + 0.5))
	return st
}

// BuildTimeline returns one point per event, oldest first.
func BuildTimeline(events []models.SimulationEvent) []TimelinePoint {
	sorted := append([]models.SimulationEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	points := make([]TimelinePoint, 0, len(sorted))
	for _, e := range sorted {
		v := 0
		if e.EventType == models.EventStarted {
			v = 1
		}
		points = append(points, TimelinePoint{Time: e.Timestamp, Value: v, EventType: e.EventType, UserID: e.UserID})
	}
	return points
}

// SummarizeTodos keeps input order inside each partition.
func SummarizeTodos(todos []models.Todo) TodoSummary {
	s := TodoSummary{Pending: []models.Todo{}, Completed: []models.Todo{}, Total: len(todos)}
	for _, t := range todos {
		if t.IsComplete {
			s.Completed = append(s.Completed, t)
		} else {
			s.Pending = append(s.Pending, t)
		}
	}
	return s
}
