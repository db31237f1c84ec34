package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"simdash/internal/models"

	"github.com/google/uuid"
)

type TodoSQLite struct {
	db *sql.DB
}

func NewTodoSQLite(db *sql.DB) *TodoSQLite { return &TodoSQLite{db: db} }

var _ TodoRepo = (*TodoSQLite)(nil)

const (
	insertTodoSQL = `INSERT INTO todos (id, user_id, task, is_complete, created_at) VALUES (?, ?, ?, ?, ?)`
	selectTodoSQL = `SELECT id, user_id, task, is_complete, created_at FROM todos`
	updateTodoSQL = `UPDATE todos SET task = ?, is_complete = ? WHERE id = ? AND user_id = ?`
	deleteTodoSQL = `DELETE FROM todos WHERE id = ? AND user_id = ?`
)

// Create inserts a todo; ID and CreatedAt are generated when empty.
func (r *TodoSQLite) Create(ctx context.Context, t models.Todo) (models.Todo, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = stampOrNow(t.CreatedAt)
	if _, err := r.db.ExecContext(ctx, insertTodoSQL, t.ID, t.UserID, t.Task, t.IsComplete, formatTime(t.CreatedAt)); err != nil {
		return models.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

// ListByUser returns the owner's todos, newest first.
func (r *TodoSQLite) ListByUser(ctx context.Context, userID int) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, selectTodoSQL+" WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	out := make([]models.Todo, 0, 16)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the todo if it exists and belongs to userID.
func (r *TodoSQLite) Get(ctx context.Context, id string, userID int) (*models.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx, selectTodoSQL+" WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update overwrites task and completion of an owned todo.
func (r *TodoSQLite) Update(ctx context.Context, t models.Todo) error {
	res, err := r.db.ExecContext(ctx, updateTodoSQL, t.Task, t.IsComplete, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update todo %s: %w", t.ID, err)
	}
	return expectOneRow(res)
}

// Delete removes an owned todo.
func (r *TodoSQLite) Delete(ctx context.Context, id string, userID int) error {
	res, err := r.db.ExecContext(ctx, deleteTodoSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTodo(s rowScanner) (models.Todo, error) {
	var (
		t  models.Todo
		ts string
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Task, &t.IsComplete, &ts); err != nil {
		return models.Todo{}, err
	}
	created, err := parseTime(ts)
	if err != nil {
		return models.Todo{}, err
	}
	t.CreatedAt = created
	return t, nil
}
