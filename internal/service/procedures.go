package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"simdash"
	"simdash/internal/metrics"
	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/repository"
)

// Procedure names as exposed under /api/v1/rpc/<name>.
const (
	ProcInsertSimulationEvent = "insert_simulation_event"
	ProcInsertCheckupEvent    = "insert_checkup_event"
	ProcActiveSimulationID    = "get_active_simulation_id"
)

// Rejection messages returned inside MutationResult.Error.
const (
	MsgAlreadyRunning = "Simulation is already running"
	MsgNotRunning     = "Simulation is not running"
)

var ErrInvalidTemperature = errors.New("temperature must be between 0 and 100")

// ProcedureService enforces the start/stop state machine and checkup bounds.
// Mutations are serialised so two concurrent starts cannot both pass the check.
type ProcedureService struct {
	mu       sync.Mutex
	sims     repository.SimulationEventRepo
	checkups repository.CheckupRepo
	pub      Publisher
	now      func() time.Time
}

func NewProcedureService(sims repository.SimulationEventRepo, checkups repository.CheckupRepo, pub Publisher) *ProcedureService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &ProcedureService{sims: sims, checkups: checkups, pub: pub, now: time.Now}
}

func (s *ProcedureService) InsertSimulationEvent(ctx context.Context, eventType, userID string) (res simdash.MutationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveProcedure(ProcInsertSimulationEvent, outcome(res.Success, err), time.Since(start))
	}()

	eventType = strings.ToLower(strings.TrimSpace(eventType))
	if eventType != models.EventStarted && eventType != models.EventStopped {
		return simdash.MutationResult{Error: fmt.Sprintf("invalid event type %q", eventType)}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	running, err := s.latestStarted(ctx)
	if err != nil {
		return simdash.MutationResult{}, err
	}
	switch {
	case eventType == models.EventStarted && running != nil:
		return simdash.MutationResult{Error: MsgAlreadyRunning}, nil
	case eventType == models.EventStopped && running == nil:
		return simdash.MutationResult{Error: MsgNotRunning}, nil
	}

	ev, err := s.sims.Append(ctx, models.SimulationEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return simdash.MutationResult{}, err
	}
	s.pub.Publish(realtime.TableSimulationEvents, realtime.EventInsert, ev)
	return simdash.MutationResult{Success: true}, nil
}

func (s *ProcedureService) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (res simdash.CheckupResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProcedure(ProcInsertCheckupEvent, outcome(res.Success, err), time.Since(start)) }()

	if temperature < 0 || temperature > 100 {
		return simdash.CheckupResult{Error: ErrInvalidTemperature.Error()}, nil
	}
	simulationID = strings.TrimSpace(simulationID)
	if simulationID == "" {
		return simdash.CheckupResult{Error: "simulation_id is required"}, nil
	}

	now := s.now().UTC()
	ev, err := s.checkups.Append(ctx, models.CheckupEvent{
		Timestamp:    now,
		Temperature:  temperature,
		Status:       models.StatusFor(temperature),
		SimulationID: simulationID,
		CreatedAt:    now,
	})
	if err != nil {
		return simdash.CheckupResult{}, err
	}
	metrics.IncCheckup(ev.Status)
	s.pub.Publish(realtime.TableCheckupEvents, realtime.EventInsert, ev)
	return simdash.CheckupResult{Success: true, Checkup: ev}, nil
}

// ActiveSimulationID returns the id of the latest event when it is a start, else "".
func (s *ProcedureService) ActiveSimulationID(ctx context.Context) (string, error) {
	start := time.Now()
	ev, err := s.latestStarted(ctx)
	metrics.ObserveProcedure(ProcActiveSimulationID, outcome(true, err), time.Since(start))
	if err != nil || ev == nil {
		return "", err
	}
	return ev.ID, nil
}

func (s *ProcedureService) latestStarted(ctx context.Context) (*models.SimulationEvent, error) {
	latest, err := s.sims.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest simulation event: %w", err)
	}
	if latest == nil || latest.EventType != models.EventStarted {
		return nil, nil
	}
	return latest, nil
}

func outcome(ok bool, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case !ok:
		return metrics.ResultRejected
	}
	return metrics.ResultSuccess
}
