package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"simdash"
	"simdash/internal/handlers"
	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
)

// stubServer backs the real HTTP handlers with in-memory services.
type stubServer struct {
	mu sync.Mutex

	users    map[string]string // email -> password
	events   []models.SimulationEvent
	checkups []models.CheckupEvent
	todos    []models.Todo

	lastOrder   []bool
	rpcResult   simdash.MutationResult
	alertResult simdash.AlertResult
	alertReqs   []simdash.AlertRequest
}

func (s *stubServer) SignUp(email, password string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
	return len(s.users), nil
}

func (s *stubServer) GenerateToken(email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[email]; !ok || pw != password {
		return "", service.ErrInvalidPassword
	}
	return "tok-1", nil
}

func (s *stubServer) ParseToken(token string) (int, error) {
	if token != "tok-1" {
		return 0, service.ErrInvalidToken
	}
	return 1, nil
}

func (s *stubServer) GetUser(id int) (*models.User, error) {
	return &models.User{ID: id, Email: "alice@example.com"}, nil
}

func (s *stubServer) InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rpcResult, nil
}

func (s *stubServer) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error) {
	return simdash.CheckupResult{Success: true}, nil
}

func (s *stubServer) ActiveSimulationID(ctx context.Context) (string, error) { return "run-1", nil }

func (s *stubServer) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = append(s.lastOrder, newestFirst)
	return s.events, nil
}

func (s *stubServer) Checkups(ctx context.Context, f service.CheckupFilter) ([]models.CheckupEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = append(s.lastOrder, f.NewestFirst)
	return s.checkups, nil
}

func (s *stubServer) RecordCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CheckupID = "chk-1"
	e.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.checkups = append(s.checkups, e)
	return e, nil
}

func (s *stubServer) ListTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todos, nil
}

func (s *stubServer) CreateTodo(ctx context.Context, userID int, task string) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Todo{ID: "t1", UserID: userID, Task: task}
	s.todos = append([]models.Todo{t}, s.todos...)
	return t, nil
}

func (s *stubServer) UpdateTodo(ctx context.Context, userID int, id string, p models.TodoPatch) (models.Todo, error) {
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

func (s *stubServer) DeleteTodo(ctx context.Context, userID int, id string) error {
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

func (s *stubServer) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) simdash.AlertResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertReqs = append(s.alertReqs, req)
	return s.alertResult
}

func (s *stubServer) Run(ctx context.Context, tick time.Duration) {}

func (s *stubServer) Tick(ctx context.Context) (bool, error) { return false, errors.New("not used") }

// startServer serves the real routes; the client starts signed out.
func startServer(t *testing.T) (*stubServer, *realtime.Broker, *Client) {
	t.Helper()
	stub := &stubServer{
		users:     map[string]string{"alice@example.com": "secret"},
		rpcResult: simdash.MutationResult{Success: true},
	}
	svc := &service.Service{
		Authorization: stub,
		Procedures:    stub,
		EventLog:      stub,
		Todos:         stub,
		Alerts:        stub,
		Generator:     stub,
	}
	broker := realtime.NewBroker(8)
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(handlers.NewHandler(svc, broker, nil).InitRoutes())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return stub, broker, c
}

func signedIn(t *testing.T) (*stubServer, *realtime.Broker, *Client) {
	t.Helper()
	stub, b, c := startServer(t)
	if err := c.SignIn(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return stub, b, c
}
