package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"simdash/internal/models"
)

// ErrNotFound is returned when a row addressed by id (and owner) does not exist.
var ErrNotFound = errors.New("not found")

type Authorization interface {
	Create(email, hash string) (int, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id int) (*models.User, error)
}

// SimulationEventRepo is the append-only start/stop log.
type SimulationEventRepo interface {
	Append(ctx context.Context, e models.SimulationEvent) (models.SimulationEvent, error)
	List(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error)
	Latest(ctx context.Context) (*models.SimulationEvent, error)
}

// CheckupRepo is the append-only temperature log.
type CheckupRepo interface {
	Append(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error)
	List(ctx context.Context, from, to time.Time, newestFirst bool) ([]models.CheckupEvent, error)
}

// TodoRepo stores per-user todos. Every mutation is scoped by owner.
type TodoRepo interface {
	Create(ctx context.Context, t models.Todo) (models.Todo, error)
	ListByUser(ctx context.Context, userID int) ([]models.Todo, error)
	Get(ctx context.Context, id string, userID int) (*models.Todo, error)
	Update(ctx context.Context, t models.Todo) error
	Delete(ctx context.Context, id string, userID int) error
}

type Repository struct {
	SimulationEvents SimulationEventRepo
	Checkups         CheckupRepo
	Todos            TodoRepo
	Auth             Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SimulationEvents: NewSimulationEventSQLite(db),
		Checkups:         NewCheckupSQLite(db),
		Todos:            NewTodoSQLite(db),
		Auth:             NewUserRepository(db),
	}
}
