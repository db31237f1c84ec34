package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"simdash/internal/metrics"
	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/repository"
)

type EventLogService struct {
	sims     repository.SimulationEventRepo
	checkups repository.CheckupRepo
	pub      Publisher
}

func NewEventLogService(sims repository.SimulationEventRepo, checkups repository.CheckupRepo, pub Publisher) *EventLogService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &EventLogService{sims: sims, checkups: checkups, pub: pub}
}

// ErrInvalidCheckup wraps every validation failure of RecordCheckup.
var ErrInvalidCheckup = errors.New("invalid checkup")

var (
	errInvalidTimeRange  = errors.New("invalid time range: from must be <= to")
	errInvalidStatus     = fmt.Errorf("%w: status must be normal or critical", ErrInvalidCheckup)
	errMissingSimulation = fmt.Errorf("%w: simulation_id is required", ErrInvalidCheckup)
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f CheckupFilter) (CheckupFilter, error) {
	f.From = normalizeToUTC(f.From)
	f.To = normalizeToUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return CheckupFilter{}, errInvalidTimeRange
	}
	return f, nil
}

func (s *EventLogService) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	return s.sims.List(ctx, newestFirst)
}

func (s *EventLogService) Checkups(ctx context.Context, f CheckupFilter) ([]models.CheckupEvent, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.checkups.List(ctx, f.From, f.To, f.NewestFirst)
}

// RecordCheckup stores a checkup as given, bypassing the running-simulation
// procedure. The caller picks the status; temperature bounds still apply.
func (s *EventLogService) RecordCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	if e.Temperature < 0 || e.Temperature > 100 {
		return models.CheckupEvent{}, ErrInvalidTemperature
	}
	e.Status = strings.ToLower(strings.TrimSpace(e.Status))
	if e.Status == "" {
		e.Status = models.StatusFor(e.Temperature)
	}
	if e.Status != models.StatusNormal && e.Status != models.StatusCritical {
		return models.CheckupEvent{}, errInvalidStatus
	}
	e.SimulationID = strings.TrimSpace(e.SimulationID)
	if e.SimulationID == "" {
		return models.CheckupEvent{}, errMissingSimulation
	}
	e.Timestamp = normalizeToUTC(e.Timestamp)

	saved, err := s.checkups.Append(ctx, e)
	if err != nil {
		return models.CheckupEvent{}, err
	}
	metrics.IncCheckup(saved.Status)
	s.pub.Publish(realtime.TableCheckupEvents, realtime.EventInsert, saved)
	return saved, nil
}
