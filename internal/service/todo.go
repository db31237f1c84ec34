package service

import (
	"context"
	"errors"
	"strings"

	"simdash/internal/models"
	"simdash/internal/realtime"
	"simdash/internal/repository"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrEmptyTask    = errors.New("task is empty")
)

// TodoService scopes every operation to the calling user. Rows owned by someone
// else are indistinguishable from missing ones.
type TodoService struct {
	repo repository.TodoRepo
	pub  Publisher
}

func NewTodoService(repo repository.TodoRepo, pub Publisher) *TodoService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &TodoService{repo: repo, pub: pub}
}

func (s *TodoService) ListTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TodoService) CreateTodo(ctx context.Context, userID int, task string) (models.Todo, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return models.Todo{}, ErrEmptyTask
	}
	t, err := s.repo.Create(ctx, models.Todo{UserID: userID, Task: task})
	if err != nil {
		return models.Todo{}, err
	}
	s.pub.Publish(realtime.TableTodos, realtime.EventInsert, t)
	return t, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, userID int, id string, p models.TodoPatch) (models.Todo, error) {
	t, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return models.Todo{}, mapNotFound(err)
	}
	if p.Task != nil {
		task := strings.TrimSpace(*p.Task)
		if task == "" {
			return models.Todo{}, ErrEmptyTask
		}
		t.Task = task
	}
	if p.IsComplete != nil {
		t.IsComplete = *p.IsComplete
	}
	if err := s.repo.Update(ctx, *t); err != nil {
		return models.Todo{}, mapNotFound(err)
	}
	s.pub.Publish(realtime.TableTodos, realtime.EventUpdate, *t)
	return *t, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, userID int, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return mapNotFound(err)
	}
	s.pub.Publish(realtime.TableTodos, realtime.EventDelete, models.Todo{ID: id, UserID: userID})
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}
