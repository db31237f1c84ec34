package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"simdash/internal/logger"
	"simdash/internal/models"
	"simdash/internal/realtime"
)

// tentative is a local change applied before the server confirms it.
// revert must undo apply; commit performs the remote write.
type tentative struct {
	apply  func(items []models.Todo) []models.Todo
	revert func(items []models.Todo) []models.Todo
	commit func(ctx context.Context) (*models.Todo, error)
}

// TodoList is the signed-in user's todos, newest first. Edits are shown
// immediately and rolled back if the server rejects them.
type TodoList struct {
	store    TodoStore
	log      *logger.Logger
	onChange func()
	reload   *coalescer
	cancel   context.CancelFunc

	mu    sync.Mutex
	items []models.Todo
	err   error
}

// NewTodoList builds a list over store. onChange may be nil.
func NewTodoList(store TodoStore, log *logger.Logger, onChange func()) *TodoList {
	ctx, cancel := context.WithCancel(context.Background())
	l := &TodoList{store: store, log: logger.OrNop(log), onChange: onChange, cancel: cancel}
	l.reload = newCoalescer(ctx, func(ctx context.Context) { _ = l.Load(ctx) })
	return l
}

// Load replaces the list with the server's copy.
func (l *TodoList) Load(ctx context.Context) error {
	items, err := l.store.ListTodos(ctx)
	if err != nil {
		err = fmt.Errorf("load todos: %w", err)
		l.log.Warnw("todos_load_failed", "err", err)
		l.setErr(err)
		return err
	}
	l.mu.Lock()
	l.items = items
	l.err = nil
	l.mu.Unlock()
	l.changed()
	return nil
}

// Trigger reloads in the background; used as the realtime and polling path.
func (l *TodoList) Trigger() { l.reload.Trigger() }

// TriggerTable is the realtime notification entry point.
func (l *TodoList) TriggerTable(string) { l.Trigger() }

// Add creates a todo and prepends the stored row. A blank task is ignored.
func (l *TodoList) Add(ctx context.Context, task string) error {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil
	}
	t, err := l.store.CreateTodo(ctx, task)
	if err != nil {
		err = fmt.Errorf("add todo: %w", err)
		l.setErr(err)
		return err
	}
	l.mu.Lock()
	l.items = append([]models.Todo{t}, l.items...)
	l.err = nil
	l.mu.Unlock()
	l.changed()
	return nil
}

// Toggle flips the completion flag of id.
func (l *TodoList) Toggle(ctx context.Context, id string) error {
	cur, ok := l.find(id)
	if !ok {
		return fmt.Errorf("toggle todo %s: %w", id, errUnknownTodo)
	}
	done := !cur.IsComplete
	return l.run(ctx, tentative{
		apply:  setComplete(id, done),
		revert: setComplete(id, cur.IsComplete),
		commit: func(ctx context.Context) (*models.Todo, error) {
			t, err := l.store.UpdateTodo(ctx, id, models.TodoPatch{IsComplete: &done})
			return &t, err
		},
	})
}

// Edit replaces the task text of id. A blank task is ignored.
func (l *TodoList) Edit(ctx context.Context, id, task string) error {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil
	}
	cur, ok := l.find(id)
	if !ok {
		return fmt.Errorf("edit todo %s: %w", id, errUnknownTodo)
	}
	return l.run(ctx, tentative{
		apply:  setTask(id, task),
		revert: setTask(id, cur.Task),
		commit: func(ctx context.Context) (*models.Todo, error) {
			t, err := l.store.UpdateTodo(ctx, id, models.TodoPatch{Task: &task})
			return &t, err
		},
	})
}

// Delete removes id.
func (l *TodoList) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := indexOf(l.items, id)
	var removed models.Todo
	if idx >= 0 {
		removed = l.items[idx]
	}
	l.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("delete todo %s: %w", id, errUnknownTodo)
	}
	return l.run(ctx, tentative{
		apply: func(items []models.Todo) []models.Todo {
			if i := indexOf(items, id); i >= 0 {
				return append(items[:i:i], items[i+1:]...)
			}
			return items
		},
		revert: func(items []models.Todo) []models.Todo {
			if indexOf(items, id) >= 0 {
				return items
			}
			i := min(idx, len(items))
			out := make([]models.Todo, 0, len(items)+1)
			out = append(out, items[:i]...)
			out = append(out, removed)
			return append(out, items[i:]...)
		},
		commit: func(ctx context.Context) (*models.Todo, error) {
			return nil, l.store.DeleteTodo(ctx, id)
		},
	})
}

// run applies t, commits it and reverts on failure. A committed row from the
// server replaces the local copy.
func (l *TodoList) run(ctx context.Context, t tentative) error {
	l.mu.Lock()
	l.items = t.apply(l.items)
	l.mu.Unlock()
	l.changed()

	row, err := t.commit(ctx)
	l.mu.Lock()
	if err != nil {
		l.items = t.revert(l.items)
		l.err = err
	} else {
		l.err = nil
		if row != nil {
			if i := indexOf(l.items, row.ID); i >= 0 {
				l.items[i] = *row
			}
		}
	}
	l.mu.Unlock()
	l.changed()

	if err != nil {
		l.log.Warnw("todo_update_rolled_back", "err", err)
	}
	return err
}

func (l *TodoList) Items() []models.Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Todo(nil), l.items...)
}

// Summary partitions the current items.
func (l *TodoList) Summary() TodoSummary { return SummarizeTodos(l.Items()) }

// Err is the last failed operation, cleared by the next successful one.
func (l *TodoList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// NewTodosController subscribes to todo changes and reloads l on each one,
// polling while the channel is down.
func NewTodosController(rt Realtime, l *TodoList, opts ...ControllerOption) *Controller {
	return NewController(rt, []string{realtime.TableTodos}, l.TriggerTable, l.Trigger, opts...)
}

// Close stops background reloads.
func (l *TodoList) Close() {
	l.cancel()
	l.reload.Close()
}

func (l *TodoList) find(id string) (models.Todo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := indexOf(l.items, id); i >= 0 {
		return l.items[i], true
	}
	return models.Todo{}, false
}

func (l *TodoList) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	l.changed()
}

func (l *TodoList) changed() {
	if l.onChange != nil {
		l.onChange()
	}
}

var errUnknownTodo = errors.New("todo not in list")

func indexOf(items []models.Todo, id string) int {
	for i, t := range items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func setComplete(id string, done bool) func([]models.Todo) []models.Todo {
	return func(items []models.Todo) []models.Todo {
		if i := indexOf(items, id); i >= 0 {
			items[i].IsComplete = done
		}
		return items
	}
}

func setTask(id, task string) func([]models.Todo) []models.Todo {
	return func(items []models.Todo) []models.Todo {
		if i := indexOf(items, id); i >= 0 {
			items[i].Task = task
		}
		return items
	}
}
