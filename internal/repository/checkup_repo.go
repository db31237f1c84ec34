package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"simdash/internal/models"

	"github.com/google/uuid"
)

type CheckupSQLite struct {
	db *sql.DB
}

func NewCheckupSQLite(db *sql.DB) *CheckupSQLite { return &CheckupSQLite{db: db} }

var _ CheckupRepo = (*CheckupSQLite)(nil)

const insertCheckupSQL = `
		INSERT INTO checkup_events (checkup_id, ts, temperature, status, simulation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

// Append inserts a reading. CheckupID, Timestamp and CreatedAt are filled when empty.
func (r *CheckupSQLite) Append(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	if e.CheckupID == "" {
		e.CheckupID = uuid.NewString()
	}
	e.Timestamp = stampOrNow(e.Timestamp)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = e.Timestamp
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}
	e.Status = strings.ToLower(strings.TrimSpace(e.Status))

	if _, err := r.db.ExecContext(ctx, insertCheckupSQL,
		e.CheckupID,
		formatTime(e.Timestamp),
		e.Temperature,
		e.Status,
		e.SimulationID,
		formatTime(e.CreatedAt),
	); err != nil {
		return models.CheckupEvent{}, fmt.Errorf("insert checkup event: %w", err)
	}
	return e, nil
}

// List returns readings within [from, to] (zero bounds are open).
func (r *CheckupSQLite) List(ctx context.Context, from, to time.Time, newestFirst bool) ([]models.CheckupEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, formatTime(to))
	}

	q := `SELECT checkup_id, ts, temperature, status, simulation_id, created_at FROM checkup_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if newestFirst {
		q += " ORDER BY ts DESC, rowid DESC"
	} else {
		q += " ORDER BY ts ASC, rowid ASC"
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query checkup events: %w", err)
	}
	defer rows.Close()

	out := make([]models.CheckupEvent, 0, 64)
	for rows.Next() {
		var (
			ev      models.CheckupEvent
			ts, cts string
		)
		if err := rows.Scan(&ev.CheckupID, &ts, &ev.Temperature, &ev.Status, &ev.SimulationID, &cts); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if ev.CreatedAt, err = parseTime(cts); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
