package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"simdash/internal/mailer"
	"simdash/internal/models"
	"simdash/internal/repository"
)

// fakeSimRepo is an in-memory repository.SimulationEventRepo.
type fakeSimRepo struct {
	mu     sync.Mutex
	events []models.SimulationEvent
	err    error
}

func (f *fakeSimRepo) Append(_ context.Context, e models.SimulationEvent) (models.SimulationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.SimulationEvent{}, f.err
	}
	e.ID = fmt.Sprintf("sim-%d", len(f.events)+1)
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeSimRepo) List(_ context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SimulationEvent, 0, len(f.events))
	if newestFirst {
		for i := len(f.events) - 1; i >= 0; i-- {
			out = append(out, f.events[i])
		}
		return out, f.err
	}
	return append(out, f.events...), f.err
}

func (f *fakeSimRepo) Latest(_ context.Context) (*models.SimulationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) == 0 {
		return nil, nil
	}
	e := f.events[len(f.events)-1]
	return &e, nil
}

// fakeCheckupRepo is an in-memory repository.CheckupRepo.
type fakeCheckupRepo struct {
	events []models.CheckupEvent
	err    error

	gotFrom, gotTo time.Time
	gotNewest      bool
}

func (f *fakeCheckupRepo) Append(_ context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	if f.err != nil {
		return models.CheckupEvent{}, f.err
	}
	e.CheckupID = fmt.Sprintf("chk-%d", len(f.events)+1)
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeCheckupRepo) List(_ context.Context, from, to time.Time, newestFirst bool) ([]models.CheckupEvent, error) {
	f.gotFrom, f.gotTo, f.gotNewest = from, to, newestFirst
	return f.events, f.err
}

// fakeTodoRepo is an in-memory repository.TodoRepo honouring ownership.
type fakeTodoRepo struct {
	rows map[string]models.Todo
	next int
	err  error
}

func newFakeTodoRepo() *fakeTodoRepo { return &fakeTodoRepo{rows: map[string]models.Todo{}} }

func (f *fakeTodoRepo) Create(_ context.Context, t models.Todo) (models.Todo, error) {
	if f.err != nil {
		return models.Todo{}, f.err
	}
	f.next++
	t.ID = fmt.Sprintf("todo-%d", f.next)
	f.rows[t.ID] = t
	return t, nil
}

func (f *fakeTodoRepo) ListByUser(_ context.Context, userID int) ([]models.Todo, error) {
	var out []models.Todo
	for _, t := range f.rows {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, f.err
}

func (f *fakeTodoRepo) Get(_ context.Context, id string, userID int) (*models.Todo, error) {
	t, ok := f.rows[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTodoRepo) Update(_ context.Context, t models.Todo) error {
	if f.err != nil {
		return f.err
	}
	cur, ok := f.rows[t.ID]
	if !ok || cur.UserID != t.UserID {
		return repository.ErrNotFound
	}
	f.rows[t.ID] = t
	return nil
}

func (f *fakeTodoRepo) Delete(_ context.Context, id string, userID int) error {
	cur, ok := f.rows[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type published struct {
	table, event string
	row          any
}

// recordingPublisher captures every Publish call.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []published
}

func (p *recordingPublisher) Publish(table, event string, row any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, published{table, event, row})
	return 1
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakeMailer records sent messages and returns a canned result.
type fakeMailer struct {
	sent []mailer.Message
	id   string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return m.id, m.err
}
