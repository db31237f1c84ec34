package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"simdash/internal/models"

	"github.com/google/uuid"
)

type SimulationEventSQLite struct {
	db *sql.DB
}

func NewSimulationEventSQLite(db *sql.DB) *SimulationEventSQLite {
	return &SimulationEventSQLite{db: db}
}

var _ SimulationEventRepo = (*SimulationEventSQLite)(nil)

const (
	insertSimulationEventSQL = `
		INSERT INTO simulation_events (id, event_type, user_id, ts)
		VALUES (?, ?, ?, ?)
	`
	selectSimulationEventsSQL = `SELECT id, event_type, user_id, ts FROM simulation_events`
)

// Append inserts a new event. If ID or Timestamp are empty, they’re set.
func (r *SimulationEventSQLite) Append(ctx context.Context, e models.SimulationEvent) (models.SimulationEvent, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Timestamp = stampOrNow(e.Timestamp)

	if _, err := r.db.ExecContext(ctx, insertSimulationEventSQL,
		e.ID,
		e.EventType,
		e.UserID,
		formatTime(e.Timestamp),
	); err != nil {
		return models.SimulationEvent{}, fmt.Errorf("insert simulation event: %w", err)
	}
	return e, nil
}

// List returns every event ordered by timestamp; rowid breaks ties in insertion order.
func (r *SimulationEventSQLite) List(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	q := selectSimulationEventsSQL + " ORDER BY ts ASC, rowid ASC"
	if newestFirst {
		q = selectSimulationEventsSQL + " ORDER BY ts DESC, rowid DESC"
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query simulation events: %w", err)
	}
	defer rows.Close()

	out := make([]models.SimulationEvent, 0, 32)
	for rows.Next() {
		ev, err := scanSimulationEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the newest event, or nil when the log is empty.
func (r *SimulationEventSQLite) Latest(ctx context.Context) (*models.SimulationEvent, error) {
	row := r.db.QueryRowContext(ctx, selectSimulationEventsSQL+" ORDER BY ts DESC, rowid DESC LIMIT 1")
	ev, err := scanSimulationEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSimulationEvent(s rowScanner) (models.SimulationEvent, error) {
	var (
		ev models.SimulationEvent
		ts string
	)
	if err := s.Scan(&ev.ID, &ev.EventType, &ev.UserID, &ts); err != nil {
		return models.SimulationEvent{}, err
	}
	t, err := parseTime(ts)
	if err != nil {
		return models.SimulationEvent{}, err
	}
	ev.Timestamp = t
	return ev, nil
}
