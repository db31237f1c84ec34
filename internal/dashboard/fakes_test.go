package dashboard

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"simdash"
	"simdash/internal/models"
)

// ---- Clock ----

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward, running due timers in order on the calling
// goroutine. Timers scheduled by callbacks fire too if they fall in range.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// ---- Realtime ----

type fakeSub struct {
	tables []string
	l      Listener
	err    error
	closed atomic.Bool
}

func (s *fakeSub) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeRealtime struct {
	mu       sync.Mutex
	subErr   error
	attempts chan *fakeSub
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{attempts: make(chan *fakeSub, 16)}
}

func (r *fakeRealtime) failNext(err error) {
	r.mu.Lock()
	r.subErr = err
	r.mu.Unlock()
}

func (r *fakeRealtime) Subscribe(ctx context.Context, tables []string, l Listener) (Subscription, error) {
	r.mu.Lock()
	err := r.subErr
	r.subErr = nil
	r.mu.Unlock()

	s := &fakeSub{tables: tables, l: l, err: err}
	r.attempts <- s
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ---- Backend ----

type fakeBackend struct {
	*fakeRealtime

	mu sync.Mutex

	user    *models.User
	userErr error

	sims          []models.SimulationEvent
	simsErr       error
	simsCalls     int
	simsNewest    []bool
	checkups      []models.CheckupEvent
	checkupsErr   error
	checkupsCalls int
	checkupsOrder []bool

	rpcResult simdash.MutationResult
	rpcErr    error
	rpcCalls  []string // event types
	rpcActors []string

	insertErr error
	inserted  []models.CheckupEvent

	alertRes  simdash.AlertResult
	alertErr  error
	alertReqs []simdash.AlertRequest

	todos      []models.Todo
	todoErr    error
	todoPatchs []models.TodoPatch
	deleted    []string
	created    []string

	// calls records remote calls in order.
	calls []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fakeRealtime: newFakeRealtime(),
		user:         &models.User{ID: 1, Email: "alice@example.com"},
		rpcResult:    simdash.MutationResult{Success: true},
	}
}

func (b *fakeBackend) record(call string) {
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) CurrentUser(ctx context.Context) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userErr != nil {
		return nil, b.userErr
	}
	if b.user == nil {
		return nil, ErrNotAuthenticated
	}
	u := *b.user
	return &u, nil
}

func (b *fakeBackend) SignIn(ctx context.Context, email, password string) error { return nil }
func (b *fakeBackend) SignUp(ctx context.Context, email, password string) error { return nil }
func (b *fakeBackend) SignOut()                                                 {}

func (b *fakeBackend) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("simulation_events")
	b.simsCalls++
	b.simsNewest = append(b.simsNewest, newestFirst)
	if b.simsErr != nil {
		return nil, b.simsErr
	}
	out := append([]models.SimulationEvent(nil), b.sims...)
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (b *fakeBackend) Checkups(ctx context.Context, newestFirst bool) ([]models.CheckupEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("checkup_events")
	b.checkupsCalls++
	b.checkupsOrder = append(b.checkupsOrder, newestFirst)
	if b.checkupsErr != nil {
		return nil, b.checkupsErr
	}
	return append([]models.CheckupEvent(nil), b.checkups...), nil
}

func (b *fakeBackend) InsertCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("insert_checkup")
	if b.insertErr != nil {
		return models.CheckupEvent{}, b.insertErr
	}
	e.CheckupID = "chk-1"
	e.Timestamp = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	b.inserted = append(b.inserted, e)
	b.checkups = append(b.checkups, e)
	return e, nil
}

func (b *fakeBackend) InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("rpc:" + eventType)
	b.rpcCalls = append(b.rpcCalls, eventType)
	b.rpcActors = append(b.rpcActors, userID)
	return b.rpcResult, b.rpcErr
}

func (b *fakeBackend) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error) {
	return simdash.CheckupResult{Success: true}, nil
}

func (b *fakeBackend) ActiveSimulationID(ctx context.Context) (string, error) { return "", nil }

func (b *fakeBackend) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) (simdash.AlertResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("send_critical_alert")
	b.alertReqs = append(b.alertReqs, req)
	return b.alertRes, b.alertErr
}

func (b *fakeBackend) ListTodos(ctx context.Context) ([]models.Todo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("list_todos")
	if b.todoErr != nil {
		return nil, b.todoErr
	}
	return append([]models.Todo(nil), b.todos...), nil
}

func (b *fakeBackend) CreateTodo(ctx context.Context, task string) (models.Todo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, task)
	if b.todoErr != nil {
		return models.Todo{}, b.todoErr
	}
	return models.Todo{ID: "new-" + task, UserID: 1, Task: task}, nil
}

func (b *fakeBackend) UpdateTodo(ctx context.Context, id string, p models.TodoPatch) (models.Todo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.todoPatchs = append(b.todoPatchs, p)
	if b.todoErr != nil {
		return models.Todo{}, b.todoErr
	}
	t := models.Todo{ID: id, UserID: 1}
	for _, cur := range b.todos {
		if cur.ID == id {
			t = cur
		}
	}
	if p.Task != nil {
		t.Task = *p.Task
	}
	if p.IsComplete != nil {
		t.IsComplete = *p.IsComplete
	}
	return t, nil
}

func (b *fakeBackend) DeleteTodo(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	return b.todoErr
}

func (b *fakeBackend) set(f func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f(b)
}

func at(sec int) time.Time {
	return time.Date(2025, 1, 1, 10, 0, sec, 0, time.UTC)
}
