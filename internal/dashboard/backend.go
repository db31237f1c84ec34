// Package dashboard is the headless simulation dashboard: it keeps local copies
// of the event logs fresh (push with a polling fallback), issues start/stop
// commands and derives the views a UI would render.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"

	"simdash"
	"simdash/internal/models"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// Identity is the authenticated-identity provider.
type Identity interface {
	// CurrentUser returns ErrNotAuthenticated when nobody is signed in.
	CurrentUser(ctx context.Context) (*models.User, error)
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut()
}

// EventStore reads the append-only logs and allows direct checkup inserts.
type EventStore interface {
	SimulationEvents(ctx context.Context, newestFirst bool) ([]models.SimulationEvent, error)
	Checkups(ctx context.Context, newestFirst bool) ([]models.CheckupEvent, error)
	InsertCheckup(ctx context.Context, e models.CheckupEvent) (models.CheckupEvent, error)
}

// Procedures are the server-side validated mutation entry points.
type Procedures interface {
	InsertSimulationEvent(ctx context.Context, eventType, userID string) (simdash.MutationResult, error)
	InsertCheckupEvent(ctx context.Context, temperature int, simulationID string) (simdash.CheckupResult, error)
	ActiveSimulationID(ctx context.Context) (string, error)
}

// Notification is a row change pushed by the realtime channel.
type Notification struct {
	Table  string
	Event  string
	NewRow json.RawMessage
}

// Listener receives realtime callbacks. Implementations of Realtime call it
// from their own goroutine, one callback at a time.
type Listener struct {
	// OnStatus reports the channel status (SUBSCRIBED, CHANNEL_ERROR, CLOSED, TIMED_OUT).
	OnStatus func(status string, err error)
	OnChange func(n Notification)
}

// Subscription is a live realtime subscription.
type Subscription interface {
	Close() error
}

// Realtime is the push-notification channel.
type Realtime interface {
	Subscribe(ctx context.Context, tables []string, l Listener) (Subscription, error)
}

// AlertDispatcher invokes the send-critical-alert function. A delivered
// response with Success=false is a result, not an error.
type AlertDispatcher interface {
	SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) (simdash.AlertResult, error)
}

// TodoStore is the signed-in user's task list.
type TodoStore interface {
	ListTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, task string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id string, p models.TodoPatch) (models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Backend is everything the dashboard needs from the server. It is built once
// (client.New) and passed to each component.
type Backend interface {
	Identity
	EventStore
	Procedures
	Realtime
	AlertDispatcher
	TodoStore
}

// currentUser maps "no identity" and lookup failures to ErrNotAuthenticated.
func currentUser(ctx context.Context, id Identity) (*models.User, error) {
	u, err := id.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil, err
		}
		return nil, errors.Join(ErrNotAuthenticated, err)
	}
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	return u, nil
}
