package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"simdash"
	"simdash/internal/dashboard"
	"simdash/internal/handlers"
	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServices backs the real HTTP routes for the CLI tests.
type fakeServices struct {
	mu sync.Mutex

	users    map[string]string
	events   []models.SimulationEvent
	checkups []models.CheckupEvent
	todos    []models.Todo
	nextTodo int

	reject  string
	revoked bool
	alerts  []simdash.AlertRequest

	broker *realtime.Broker
}

func (s *fakeServices) SignUp(email, password string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return 0, errors.New("user exists")
	}
	s.users[email] = password
	return len(s.users), nil
}

func (s *fakeServices) GenerateToken(email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[email]; !ok || pw != password {
		return "", service.ErrInvalidPassword
	}
	return "tok", nil
}

func (s *fakeServices) ParseToken(token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "tok" || s.revoked {
		return 0, service.ErrInvalidToken
	}
	return 1, nil
}

func (s *fakeServices) GetUser(id int) (*models.User, error) {
	return &models.User{ID: id, Email: "op@example.com"}, nil
}

func (s *fakeServices) InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject != "" {
		return simdash.MutationResult{Error: s.reject}, nil
	}
	s.events = append(s.events, models.SimulationEvent{
		ID:        fmt.Sprintf("e%d", len(s.events)+1),
		EventType: eventType,
		Timestamp: time.Date(2025, 3, 1, 12, 0, len(s.events), 0, time.UTC),
		UserID:    userID,
	})
	return simdash.MutationResult{Success: true}, nil
}

func (s *fakeServices) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error) {
	return simdash.CheckupResult{Success: true}, nil
}

func (s *fakeServices) ActiveSimulationID(ctx context.Context) (string, error) { return "", nil }

func (s *fakeServices) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SimulationEvent(nil), s.events...), nil
}

func (s *fakeServices) Checkups(ctx context.Context, f service.CheckupFilter) ([]models.CheckupEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CheckupEvent(nil), s.checkups...), nil
}

func (s *fakeServices) RecordCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CheckupID = fmt.Sprintf("c%d", len(s.checkups)+1)
	e.Timestamp = time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	s.checkups = append(s.checkups, e)
	return e, nil
}

func (s *fakeServices) ListTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Todo(nil), s.todos...), nil
}

func (s *fakeServices) CreateTodo(ctx context.Context, userID int, task string) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTodo++
	t := models.Todo{ID: fmt.Sprintf("t%d", s.nextTodo), UserID: userID, Task: task}
	s.todos = append([]models.Todo{t}, s.todos...)
	return t, nil
}

func (s *fakeServices) UpdateTodo(ctx context.Context, userID int, id string, p models.TodoPatch) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID != id {
			continue
		}
		if p.Task != nil {
			s.todos[i].Task = *p.Task
		}
		if p.IsComplete != nil {
			s.todos[i].IsComplete = *p.IsComplete
		}
		return s.todos[i], nil
	}
	return models.Todo{}, service.ErrTodoNotFound
}

func (s *fakeServices) DeleteTodo(ctx context.Context, userID int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return nil
		}
	}
	return service.ErrTodoNotFound
}

func (s *fakeServices) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) simdash.AlertResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, req)
	return simdash.AlertResult{Success: true, Message: "Alert sent", EmailID: "em-1"}
}

func (s *fakeServices) Run(ctx context.Context, tick time.Duration) {}

func (s *fakeServices) Tick(ctx context.Context) (bool, error) { return false, errors.New("not used") }

func (s *fakeServices) snapshot() (events []models.SimulationEvent, checkups []models.CheckupEvent, todos []models.Todo, alerts []simdash.AlertRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events, s.checkups, s.todos, s.alerts
}

func newTestServer(t *testing.T) (*fakeServices, string) {
	t.Helper()
	fs := &fakeServices{
		users:  map[string]string{"op@example.com": "pw"},
		broker: realtime.NewBroker(8),
	}
	svc := &service.Service{
		Authorization: fs,
		Procedures:    fs,
		EventLog:      fs,
		Todos:         fs,
		Alerts:        fs,
		Generator:     fs,
	}
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(handlers.NewHandler(svc, fs.broker, nil).InitRoutes())
	t.Cleanup(srv.Close)
	return fs, srv.URL
}

func executeCLI(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func withLogin(url string, args ...string) []string {
	return append([]string{"--server", url, "--email", "op@example.com", "--password", "pw"}, args...)
}

func TestStartPrintsRunningView(t *testing.T) {
	fs, url := newTestServer(t)

	stdout, _, err := executeCLI(t, context.Background(), withLogin(url, "start")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "RUNNING")
	assert.Contains(t, stdout, "by op@example.com")
	events, _, _, _ := fs.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStarted, events[0].EventType)
}

func TestStopRejectedShowsReason(t *testing.T) {
	fs, url := newTestServer(t)
	fs.reject = "Simulation is not running"

	stdout, _, err := executeCLI(t, context.Background(), withLogin(url, "stop")...)
	require.Error(t, err)
	assert.Equal(t, "Simulation is not running", err.Error())
	assert.Contains(t, stdout, "STOPPED")
	assert.Contains(t, stdout, "error:")
	assert.Contains(t, stdout, "Simulation is not running")
}

func TestCommandsRequireCredentials(t *testing.T) {
	_, url := newTestServer(t)

	_, _, err := executeCLI(t, context.Background(), "--server", url, "start")
	require.ErrorIs(t, err, errMissingCredentials)

	_, _, err = executeCLI(t, context.Background(), "--server", url, "--email", "op@example.com", "--password", "nope", "start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in as op@example.com")
}

func TestBadServerURL(t *testing.T) {
	_, _, err := executeCLI(t, context.Background(), "--server", "localhost:1", "todos", "list")
	require.Error(t, err)
}

func TestTokenSkipsSignIn(t *testing.T) {
	fs, url := newTestServer(t)
	fs.todos = []models.Todo{{ID: "t9", Task: "existing"}}

	stdout, _, err := executeCLI(t, context.Background(), "--server", url, "--token", "tok", "todos", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "existing")
}

func TestTodosLifecycle(t *testing.T) {
	fs, url := newTestServer(t)
	ctx := context.Background()

	stdout, _, err := executeCLI(t, ctx, withLogin(url, "todos", "list")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no todos")

	stdout, _, err = executeCLI(t, ctx, withLogin(url, "todos", "add", "check", "the", "thermocouple")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "check the thermocouple")
	assert.Contains(t, stdout, "1 pending, 0 completed")

	stdout, _, err = executeCLI(t, ctx, withLogin(url, "todos", "done", "t1")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[x]")
	assert.Contains(t, stdout, "0 pending, 1 completed")

	stdout, _, err = executeCLI(t, ctx, withLogin(url, "todos", "edit", "t1", "replace", "sensor")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "replace sensor")

	stdout, _, err = executeCLI(t, ctx, withLogin(url, "todos", "rm", "t1")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted t1")
	_, _, todos, _ := fs.snapshot()
	assert.Empty(t, todos)

	_, _, err = executeCLI(t, ctx, withLogin(url, "todos", "rm", "t1")...)
	require.Error(t, err)
}

func TestTestAlert(t *testing.T) {
	fs, url := newTestServer(t)

	stdout, _, err := executeCLI(t, context.Background(), withLogin(url, "test-alert")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "alert sent: Alert sent")
	assert.Contains(t, stdout, "Email ID: em-1")

	_, checkups, _, alerts := fs.snapshot()
	require.Len(t, checkups, 1)
	assert.Equal(t, 95, checkups[0].Temperature)
	assert.Equal(t, models.StatusCritical, checkups[0].Status)
	require.Len(t, alerts, 1)
	assert.Equal(t, "op@example.com", alerts[0].UserEmail)
	assert.Equal(t, checkups[0].SimulationID, alerts[0].SimulationID)
}

func TestExportWritesWorkbook(t *testing.T) {
	fs, url := newTestServer(t)
	fs.checkups = []models.CheckupEvent{{CheckupID: "c1", Temperature: 40, Status: models.StatusNormal}}
	out := filepath.Join(t.TempDir(), "out.xlsx")

	stdout, _, err := executeCLI(t, context.Background(), withLogin(url, "export", "--out", out)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")))
}

func TestSignUp(t *testing.T) {
	fs, url := newTestServer(t)

	stdout, _, err := executeCLI(t, context.Background(),
		"--server", url, "--email", "new@example.com", "--password", "pw2", "signup")
	require.NoError(t, err)
	assert.Contains(t, stdout, "account new@example.com created")
	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Equal(t, "pw2", fs.users["new@example.com"])
}

func TestWatchRendersUntilCancelled(t *testing.T) {
	fs, url := newTestServer(t)
	fs.events = []models.SimulationEvent{{
		ID: "e1", EventType: models.EventStarted, UserID: "op@example.com",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	fs.checkups = []models.CheckupEvent{
		{CheckupID: "c1", Temperature: 40, Status: models.StatusNormal, Timestamp: time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC)},
		{CheckupID: "c2", Temperature: 90, Status: models.StatusCritical, Timestamp: time.Date(2025, 3, 1, 12, 2, 0, 0, time.UTC)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	stdout, _, err := executeCLI(t, ctx, withLogin(url, "watch")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "user:")
	assert.Contains(t, stdout, "op@example.com")
	assert.Contains(t, stdout, "RUNNING")
	assert.Contains(t, stdout, "90°C (avg 65, min 40, max 90)")
	assert.Contains(t, stdout, "2 (1 critical, 1 normal)")
}

func TestWatchJSON(t *testing.T) {
	_, url := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	stdout, _, err := executeCLI(t, ctx, withLogin(url, "watch", "--json")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"status":{"status":"stopped"`)
}

func TestWatchExitsWhenSessionRevoked(t *testing.T) {
	fs, url := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, _, err := executeCLI(t, ctx, withLogin(url, "watch")...)
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool { return fs.broker.Subscribers() == 1 }, 3*time.Second, 10*time.Millisecond)
	fs.mu.Lock()
	fs.revoked = true
	fs.mu.Unlock()
	fs.broker.Publish(realtime.TableCheckupEvents, realtime.EventInsert, models.CheckupEvent{CheckupID: "c9", Temperature: 50})

	select {
	case r := <-done:
		require.ErrorIs(t, r.err, dashboard.ErrNotAuthenticated)
		assert.Contains(t, r.err.Error(), "session ended")
		assert.Contains(t, r.out, "signed out")
	case <-time.After(4 * time.Second):
		t.Fatal("watch kept running after the session was revoked")
	}
}
