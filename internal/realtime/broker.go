package realtime

import (
	"encoding/json"
	"sync"
)

// Row change kinds.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Tables that publish row changes.
const (
	TableSimulationEvents = "simulation_events"
	TableCheckupEvents    = "checkup_events"
	TableTodos            = "todos"
)

// Change is one row mutation as seen by subscribers.
type Change struct {
	Table  string          `json:"table"`
	Event  string          `json:"event"`
	NewRow json.RawMessage `json:"new_row,omitempty"`
}

type subscriber struct {
	tables map[string]struct{}
	ch     chan Change
}

// Broker fans out row changes to subscribers filtered by table.
// A subscriber whose buffer is full misses the change; it is never blocked on.
type Broker struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[*subscriber]struct{}), buffer: buffer}
}

// Subscription is the receiving side of Subscribe.
type Subscription struct {
	b   *Broker
	sub *subscriber
}

// C delivers changes. It is closed by Close.
func (s *Subscription) C() <-chan Change { return s.sub.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.subs[s.sub]; !ok {
		return
	}
	delete(s.b.subs, s.sub)
	close(s.sub.ch)
}

// Subscribe registers interest in the given tables. An empty list means all tables.
func (b *Broker) Subscribe(tables ...string) *Subscription {
	sub := &subscriber{ch: make(chan Change, b.buffer)}
	if len(tables) > 0 {
		sub.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			sub.tables[t] = struct{}{}
		}
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return &Subscription{b: b, sub: sub}
}

// Publish marshals row and delivers it to every interested subscriber.
// It returns the number of subscribers that received the change.
func (b *Broker) Publish(table, event string, row any) int {
	if b == nil {
		return 0
	}
	var raw json.RawMessage
	if row != nil {
		payload, err := json.Marshal(row)
		if err != nil {
			return 0
		}
		raw = payload
	}
	c := Change{Table: table, Event: event, NewRow: raw}

	// Sending under the lock keeps Close from racing a send on a closed channel;
	// sends never block.
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for sub := range b.subs {
		if sub.tables != nil {
			if _, ok := sub.tables[table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- c:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
