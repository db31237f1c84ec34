package handlers

import (
	"errors"
	"net/http"

	"simdash/internal/models"
	"simdash/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateTodoRequest is the body of POST /api/v1/todos.
type CreateTodoRequest struct {
	Task string `json:"task" binding:"required" example:"Check sensor wiring"`
}

// todoError maps service errors to status codes.
func (h *Handler) todoError(c *gin.Context, logKey string, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "todo operation failed", logKey, err, "user_id", userID(c))
	}
}

// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Success      200  {array}   models.Todo
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/todos [get]
// @Security     BearerAuth
func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.services.ListTodos(c.Request.Context(), userID(c))
	if err != nil {
		h.todoError(c, "todos_list_failed", err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	c.JSON(http.StatusOK, todos)
}

// @Summary      Create todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      CreateTodoRequest  true  "Todo"
// @Success      201   {object}  models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/todos [post]
// @Security     BearerAuth
func (h *Handler) createTodo(c *gin.Context) {
	var req CreateTodoRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	t, err := h.services.CreateTodo(c.Request.Context(), userID(c), req.Task)
	if err != nil {
		h.todoError(c, "todo_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// @Summary      Update todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Todo id"
// @Param        body  body      models.TodoPatch  true  "Fields to change"
// @Success      200   {object}  models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/todos/{id} [patch]
// @Security     BearerAuth
func (h *Handler) updateTodo(c *gin.Context) {
	var patch models.TodoPatch
	if ok := h.bindJSONOrBadRequest(c, &patch); !ok {
		return
	}
	t, err := h.services.UpdateTodo(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		h.todoError(c, "todo_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Delete todo
// @Tags         todos
// @Param        id   path  string  true  "Todo id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/todos/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTodo(c *gin.Context) {
	if err := h.services.DeleteTodo(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.todoError(c, "todo_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
