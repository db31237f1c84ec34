package service

import (
	"context"
	"time"

	"simdash"
	"simdash/internal/logger"
	"simdash/internal/mailer"
	"simdash/internal/models"
	"simdash/internal/repository"
)

type Authorization interface {
	SignUp(email, password string) (int, error)
	GenerateToken(email, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	GetUser(id int) (*models.User, error)
}

// Procedures are the validated mutation entry points. Business-rule rejections
// come back as Success=false results; only infrastructure failures are errors.
type Procedures interface {
	InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error)
	InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error)
	ActiveSimulationID(ctx context.Context) (string, error)
}

// EventLog exposes the append-only logs.
type EventLog interface {
	SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error)
	Checkups(ctx context.Context, f CheckupFilter) ([]models.CheckupEvent, error)
	RecordCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error)
}

// Todos is the owner-scoped task list.
type Todos interface {
	ListTodos(ctx context.Context, userID int) ([]models.Todo, error)
	CreateTodo(ctx context.Context, userID int, task string) (models.Todo, error)
	UpdateTodo(ctx context.Context, userID int, id string, p models.TodoPatch) (models.Todo, error)
	DeleteTodo(ctx context.Context, userID int, id string) error
}

// Alerts renders and delivers critical temperature notifications.
type Alerts interface {
	SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) simdash.AlertResult
}

// Generator produces synthetic checkups while a simulation runs.
// Stop via context cancellation in main() for graceful shutdown.
type Generator interface {
	Run(ctx context.Context, tick time.Duration)
	Tick(ctx context.Context) (bool, error)
}

// Publisher receives every committed row change. realtime.Broker implements it.
type Publisher interface {
	Publish(table, event string, row any) int
}

// Mailer delivers a rendered email. mailer.HTTPMailer implements it.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

type Options struct {
	SigningKey     string
	TokenTTL       time.Duration
	AlertRecipient string
	Publisher      Publisher
	Mailer         Mailer
	Log            *logger.Logger
}

type Service struct {
	Authorization
	Procedures
	EventLog
	Todos
	Alerts
	Generator
}

func NewService(repos *repository.Repository, opts Options) *Service {
	pub := opts.Publisher
	if pub == nil {
		pub = nopPublisher{}
	}
	log := logger.OrNop(opts.Log)

	procs := NewProcedureService(repos.SimulationEvents, repos.Checkups, pub)
	alerts := NewAlertService(opts.Mailer, opts.AlertRecipient, log.Named("alerts"))
	return &Service{
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
		Procedures:    procs,
		EventLog:      NewEventLogService(repos.SimulationEvents, repos.Checkups, pub),
		Todos:         NewTodoService(repos.Todos, pub),
		Alerts:        alerts,
		Generator:     NewGeneratorService(procs, alerts, log.Named("generator")),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) int { return 0 }
