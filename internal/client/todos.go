package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"simdash/internal/models"
)

func todoPath(id string) string {
	return apiPrefix + "/todos/" + url.PathEscape(id)
}

func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out []models.Todo
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/todos", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return out, nil
}

func (c *Client) CreateTodo(ctx context.Context, task string) (models.Todo, error) {
	var out models.Todo
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/todos", nil, map[string]string{"task": task}, &out); err != nil {
		return models.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, p models.TodoPatch) (models.Todo, error) {
	var out models.Todo
	if err := c.do(ctx, http.MethodPatch, todoPath(id), nil, p, &out); err != nil {
		return models.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, todoPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}
