package handlers

import (
	"context"
	"net/http"

	"simdash"
	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error
	user          *models.User
	userErr       error

	lastSignUpEmail    string
	lastSignUpPassword string
	lastGenEmail       string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(email, password string) (int, error) {
	m.lastSignUpEmail = email
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(email, password string) (string, error) {
	m.lastGenEmail = email
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}
func (m *mockAuth) GetUser(id int) (*models.User, error) {
	if m.user == nil && m.userErr == nil {
		return nil, service.ErrUserNotFound
	}
	return m.user, m.userErr
}

type mockProcedures struct {
	simResult     simdash.MutationResult
	simErr        error
	checkupResult simdash.CheckupResult
	checkupErr    error
	activeID      string
	activeErr     error

	lastEventType string
	lastActor     string
	lastTemp      int
	lastSimID     string
	simCalls      int
}

func (m *mockProcedures) InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error) {
	m.simCalls++
	m.lastEventType = eventType
	m.lastActor = userID
	return m.simResult, m.simErr
}
func (m *mockProcedures) InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error) {
	m.lastTemp = temperature
	m.lastSimID = simulationID
	return m.checkupResult, m.checkupErr
}
func (m *mockProcedures) ActiveSimulationID(ctx context.Context) (string, error) {
	return m.activeID, m.activeErr
}

type mockEventLog struct {
	sims        []models.SimulationEvent
	checkups    []models.CheckupEvent
	recorded    models.CheckupEvent
	err         error
	recordErr   error
	lastNewest  bool
	lastFilter  service.CheckupFilter
	lastRecord  models.CheckupEvent
	recordCalls int
}

func (m *mockEventLog) SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error) {
	m.lastNewest = newestFirst
	return m.sims, m.err
}
func (m *mockEventLog) Checkups(ctx context.Context, f service.CheckupFilter) ([]models.CheckupEvent, error) {
	m.lastFilter = f
	return m.checkups, m.err
}
func (m *mockEventLog) RecordCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error) {
	m.recordCalls++
	m.lastRecord = e
	return m.recorded, m.recordErr
}

type mockTodos struct {
	list      []models.Todo
	created   models.Todo
	updated   models.Todo
	err       error
	lastUser  int
	lastID    string
	lastTask  string
	lastPatch models.TodoPatch
}

func (m *mockTodos) ListTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	m.lastUser = userID
	return m.list, m.err
}
func (m *mockTodos) CreateTodo(ctx context.Context, userID int, task string) (models.Todo, error) {
	m.lastUser, m.lastTask = userID, task
	return m.created, m.err
}
func (m *mockTodos) UpdateTodo(ctx context.Context, userID int, id string, p models.TodoPatch) (models.Todo, error) {
	m.lastUser, m.lastID, m.lastPatch = userID, id, p
	return m.updated, m.err
}
func (m *mockTodos) DeleteTodo(ctx context.Context, userID int, id string) error {
	m.lastUser, m.lastID = userID, id
	return m.err
}

type mockAlerts struct {
	res     simdash.AlertResult
	lastReq simdash.AlertRequest
	calls   int
}

func (m *mockAlerts) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) simdash.AlertResult {
	m.calls++
	m.lastReq = req
	return m.res
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWithBroker(s, nil)
}

func newTestRouterWithBroker(s *service.Service, b *realtime.Broker) *gin.Engine {
	h := NewHandler(s, b, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
