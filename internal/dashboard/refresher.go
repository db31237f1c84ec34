package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"simdash/internal/logger"
	"simdash/internal/models"
	"simdash/internal/realtime"

	"golang.org/x/sync/errgroup"
)

// Collection identifies one cached event log.
type Collection int

const (
	CollectionSimulation Collection = iota
	CollectionCheckups
	numCollections
)

func (c Collection) String() string {
	switch c {
	case CollectionSimulation:
		return realtime.TableSimulationEvents
	case CollectionCheckups:
		return realtime.TableCheckupEvents
	}
	return fmt.Sprintf("collection(%d)", int(c))
}

// CollectionForTable maps a realtime table name to its collection.
func CollectionForTable(table string) (Collection, bool) {
	switch table {
	case realtime.TableSimulationEvents:
		return CollectionSimulation, true
	case realtime.TableCheckupEvents:
		return CollectionCheckups, true
	}
	return 0, false
}

// ErrRefresherClosed is returned by refreshes that finish after Close.
var ErrRefresherClosed = errors.New("refresher closed")

// Refresher keeps the two event logs cached. Every query is numbered per
// collection; a result older than the last applied one is dropped, so a slow
// query can never overwrite fresher data. Failed queries leave the cache as
// it was.
type Refresher struct {
	store    EventStore
	log      *logger.Logger
	onChange func()
	onError  func(error)

	ctx      context.Context
	cancel   context.CancelFunc
	triggers [numCollections]*coalescer

	mu       sync.Mutex
	closed   bool
	sims     []models.SimulationEvent
	checkups []models.CheckupEvent
	issued   [numCollections]uint64
	applied  [numCollections]uint64
	errs     [numCollections]error
}

type RefresherOption func(*Refresher)

// WithRefreshErrorHandler registers f for every failed query. f runs on the
// refreshing goroutine, outside internal locks, and must not call Close.
func WithRefreshErrorHandler(f func(error)) RefresherOption {
	return func(r *Refresher) { r.onError = f }
}

// NewRefresher builds a refresher over store. onChange, if set, is called
// after every applied update, outside internal locks.
func NewRefresher(store EventStore, log *logger.Logger, onChange func(), opts ...RefresherOption) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{
		store:    store,
		log:      logger.OrNop(log),
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(r)
	}
	r.triggers[CollectionSimulation] = newCoalescer(ctx, func(ctx context.Context) { _ = r.RefreshSimulation(ctx) })
	r.triggers[CollectionCheckups] = newCoalescer(ctx, func(ctx context.Context) { _ = r.RefreshCheckups(ctx) })
	return r
}

// Refresh queries both logs concurrently: simulation events newest first,
// checkups oldest first. Each collection is replaced independently.
func (r *Refresher) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return r.RefreshSimulation(ctx) })
	g.Go(func() error { return r.RefreshCheckups(ctx) })
	return g.Wait()
}

func (r *Refresher) RefreshSimulation(ctx context.Context) error {
	seq, ok := r.begin(CollectionSimulation)
	if !ok {
		return ErrRefresherClosed
	}
	events, err := r.store.SimulationEvents(ctx, true)
	return r.finish(CollectionSimulation, seq, err, func() { r.sims = events })
}

func (r *Refresher) RefreshCheckups(ctx context.Context) error {
	seq, ok := r.begin(CollectionCheckups)
	if !ok {
		return ErrRefresherClosed
	}
	checkups, err := r.store.Checkups(ctx, false)
	return r.finish(CollectionCheckups, seq, err, func() { r.checkups = checkups })
}

// Trigger schedules a background refresh of one collection and returns at once.
func (r *Refresher) Trigger(c Collection) {
	if c < 0 || c >= numCollections {
		return
	}
	r.triggers[c].Trigger()
}

// TriggerAll schedules a background refresh of every collection.
func (r *Refresher) TriggerAll() {
	for _, t := range r.triggers {
		t.Trigger()
	}
}

// TriggerTable is the realtime notification entry point.
func (r *Refresher) TriggerTable(table string) {
	if c, ok := CollectionForTable(table); ok {
		r.Trigger(c)
	}
}

func (r *Refresher) begin(c Collection) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, false
	}
	r.issued[c]++
	return r.issued[c], true
}

func (r *Refresher) finish(c Collection, seq uint64, err error, apply func()) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRefresherClosed
	}
	if err != nil {
		err = fmt.Errorf("refresh %s: %w", c, err)
		r.errs[c] = err
		r.mu.Unlock()
		r.log.Warnw("refresh_failed", "collection", c.String(), "seq", seq, "err", err)
		if r.onError != nil {
			r.onError(err)
		}
		return err
	}
	if applied := r.applied[c]; seq <= applied {
		r.mu.Unlock()
		r.log.Debugw("refresh_stale_discarded", "collection", c.String(), "seq", seq, "applied", applied)
		return nil
	}
	r.applied[c] = seq
	r.errs[c] = nil
	apply()
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange()
	}
	return nil
}

// SimulationEvents returns the cached events, newest first.
func (r *Refresher) SimulationEvents() []models.SimulationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SimulationEvent(nil), r.sims...)
}

// Checkups returns the cached checkups, oldest first.
func (r *Refresher) Checkups() []models.CheckupEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CheckupEvent(nil), r.checkups...)
}

// LastError reports the most recent failure per collection, cleared by the
// next successful query of that collection.
func (r *Refresher) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs[:]...)
}

// Close cancels in-flight queries and waits for background refreshes.
// No cached state changes after Close returns.
func (r *Refresher) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	for _, t := range r.triggers {
		t.Close()
	}
}
