package repository

import (
	"regexp"
	"testing"
	"time"

	"simdash/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCheckupAppend_NormalizesStatusAndDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	mock.ExpectExec(regexp.QuoteMeta(insertCheckupSQL)).
		WithArgs(sqlmock.AnyArg(), formatTime(ts), 95, "critical", "sim-1", formatTime(ts)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := NewCheckupSQLite(db).Append(ctx(t), models.CheckupEvent{
		Timestamp:    ts,
		Temperature:  95,
		Status:       " CRITICAL ",
		SimulationID: "sim-1",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got.CheckupID == "" || got.Status != models.StatusCritical || !got.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected event: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCheckupList_FiltersAndOrder(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := `SELECT checkup_id, ts, temperature, status, simulation_id, created_at FROM checkup_events WHERE ts >= ? AND ts <= ? ORDER BY ts ASC, rowid ASC`
	rows := sqlmock.NewRows([]string{"checkup_id", "ts", "temperature", "status", "simulation_id", "created_at"}).
		AddRow("c1", formatTime(from), 10, "normal", "s", formatTime(from)).
		AddRow("c2", formatTime(to), 91, "critical", "s", formatTime(to))
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(formatTime(from), formatTime(to)).
		WillReturnRows(rows)

	got, err := NewCheckupSQLite(db).List(ctx(t), from, to, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[1].Temperature != 91 || got[1].Status != "critical" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCheckupList_NoFiltersNewestFirst(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT checkup_id, ts, temperature, status, simulation_id, created_at FROM checkup_events ORDER BY ts DESC, rowid DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"checkup_id", "ts", "temperature", "status", "simulation_id", "created_at"}))

	got, err := NewCheckupSQLite(db).List(ctx(t), time.Time{}, time.Time{}, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}
