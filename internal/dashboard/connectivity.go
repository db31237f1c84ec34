package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"simdash/internal/logger"
	"simdash/internal/realtime"

	"github.com/jpillora/backoff"
)

// ConnState is the realtime connection state.
type ConnState string

const (
	StateDisconnected ConnState = "DISCONNECTED"
	StateConnecting   ConnState = "CONNECTING"
	StateSubscribed   ConnState = "SUBSCRIBED"
	StateConnected    ConnState = "CONNECTED"
)

// Active reports whether push delivery is working.
func (s ConnState) Active() bool {
	return s == StateSubscribed || s == StateConnected
}

const (
	DefaultPollInterval = 5 * time.Second

	defaultReconnectMin = time.Second
	defaultReconnectMax = 30 * time.Second
)

type ControllerOption func(*Controller)

// WithPollInterval sets the fallback polling period.
func WithPollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithoutReconnect disables reconnect attempts; polling is then the only
// recovery while disconnected.
func WithoutReconnect() ControllerOption {
	return func(c *Controller) { c.reconnect = false }
}

// WithReconnectBackoff bounds the reconnect delay.
func WithReconnectBackoff(lo, hi time.Duration) ControllerOption {
	return func(c *Controller) {
		c.backoff.Min, c.backoff.Max = lo, hi
	}
}

func WithClock(clk Clock) ControllerOption {
	return func(c *Controller) { c.clock = clk }
}

func WithControllerLogger(l *logger.Logger) ControllerOption {
	return func(c *Controller) { c.log = logger.OrNop(l) }
}

// WithStateListener registers f for state changes. f runs under the
// controller lock and must not block or call back into the controller.
func WithStateListener(f func(ConnState)) ControllerOption {
	return func(c *Controller) { c.onState = f }
}

// WithDisconnectListener registers f for the error behind every drop to
// DISCONNECTED, including failed subscribe calls. Same rules as
// WithStateListener.
func WithDisconnectListener(f func(error)) ControllerOption {
	return func(c *Controller) { c.onDrop = f }
}

// Controller keeps a realtime subscription on a set of tables and falls back
// to polling while it is down.
//
// Notifications call onChange(table); poll ticks call poll. Both run under the
// controller lock and must not block: hand them to Refresher.Trigger or
// similar. After Stop returns neither is called again.
//
// While DISCONNECTED exactly one repeating poll timer is live. Every other
// state cancels it. Each subscription attempt gets a generation number;
// callbacks from an older generation are ignored.
type Controller struct {
	rt       Realtime
	tables   []string
	onChange func(table string)
	poll     func()

	clock     Clock
	log       *logger.Logger
	interval  time.Duration
	reconnect bool
	onState   func(ConnState)
	onDrop    func(error)
	backoff   *backoff.Backoff

	mu         sync.Mutex
	running    bool
	state      ConnState
	gen        uint64
	sub        Subscription
	pollTimer  Timer
	pollGen    uint64
	retryTimer Timer
	retryGen   uint64
	lastErr    error
	cancel     context.CancelFunc
	ctx        context.Context
	wg         sync.WaitGroup
}

func NewController(rt Realtime, tables []string, onChange func(table string), poll func(), opts ...ControllerOption) *Controller {
	c := &Controller{
		rt:        rt,
		tables:    append([]string(nil), tables...),
		onChange:  onChange,
		poll:      poll,
		clock:     SystemClock(),
		log:       logger.Nop(),
		interval:  DefaultPollInterval,
		reconnect: true,
		state:     StateDisconnected,
		backoff: &backoff.Backoff{
			Min:    defaultReconnectMin,
			Max:    defaultReconnectMax,
			Factor: 2,
			Jitter: true,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start moves to CONNECTING and subscribes in the background. Calling Start
// on a running controller does nothing.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.lastErr = nil
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.backoff.Reset()
	c.setStateLocked(StateConnecting)
	c.connectLocked()
}

// Stop tears down the subscription and every timer, then waits for a pending
// subscribe call to return.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.gen++
	sub := c.sub
	c.sub = nil
	c.stopPollLocked()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.retryGen++
	c.state = StateDisconnected
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	if sub != nil {
		if err := sub.Close(); err != nil {
			c.log.Debugw("realtime_close_failed", "err", err)
		}
	}
	c.wg.Wait()
	c.log.Infow("realtime_stopped")
}

func (c *Controller) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError is the reason for the current DISCONNECTED state, nil while active.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) connectLocked() {
	c.gen++
	gen := c.gen
	ctx := c.ctx
	c.wg.Add(1)
	go c.subscribe(ctx, gen)
}

func (c *Controller) subscribe(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	l := Listener{
		OnStatus: func(status string, err error) { c.handleStatus(gen, status, err) },
		OnChange: func(n Notification) { c.handleChange(gen, n) },
	}
	sub, err := c.rt.Subscribe(ctx, c.tables, l)

	c.mu.Lock()
	if !c.running || gen != c.gen {
		c.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
		return
	}
	if err != nil {
		c.disconnectLocked(fmt.Errorf("subscribe: %w", err))
		c.mu.Unlock()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}

func (c *Controller) handleStatus(gen uint64, status string, err error) {
	c.mu.Lock()
	if !c.running || gen != c.gen {
		c.mu.Unlock()
		return
	}
	var dropped Subscription
	switch ConnState(status) {
	case StateSubscribed, StateConnected:
		c.lastErr = nil
		c.backoff.Reset()
		c.setStateLocked(ConnState(status))
	default:
		if err == nil {
			err = fmt.Errorf("realtime channel %s", strings.ToLower(status))
		}
		dropped = c.disconnectLocked(err)
	}
	c.mu.Unlock()

	if dropped != nil {
		_ = dropped.Close()
	}
}

func (c *Controller) handleChange(gen uint64, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || gen != c.gen {
		return
	}
	if c.onChange != nil {
		c.onChange(n.Table)
	}
}

// disconnectLocked detaches the current subscription and returns it for the
// caller to close after unlocking.
func (c *Controller) disconnectLocked(err error) Subscription {
	c.lastErr = err
	c.gen++
	sub := c.sub
	c.sub = nil
	c.log.Warnw("realtime_disconnected", "err", err)
	c.setStateLocked(StateDisconnected)
	if c.onDrop != nil {
		c.onDrop(err)
	}
	if c.reconnect {
		c.scheduleRetryLocked()
	}
	return sub
}

func (c *Controller) setStateLocked(s ConnState) {
	if s == c.state {
		return
	}
	c.state = s
	if s == StateDisconnected {
		c.startPollLocked()
	} else {
		c.stopPollLocked()
	}
	c.log.Infow("realtime_state", "state", string(s))
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Controller) startPollLocked() {
	if c.pollTimer != nil {
		return
	}
	c.pollGen++
	g := c.pollGen
	c.pollTimer = c.clock.AfterFunc(c.interval, func() { c.pollTick(g) })
}

func (c *Controller) stopPollLocked() {
	if c.pollTimer != nil {
		c.pollTimer.Stop()
		c.pollTimer = nil
	}
	c.pollGen++
}

func (c *Controller) pollTick(g uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || g != c.pollGen || c.state != StateDisconnected {
		return
	}
	c.pollTimer = c.clock.AfterFunc(c.interval, func() { c.pollTick(g) })
	if c.poll != nil {
		c.poll()
	}
}

// scheduleRetryLocked arms one reconnect attempt. The state stays
// DISCONNECTED, and polling keeps running, until the new subscription
// reports an active status.
func (c *Controller) scheduleRetryLocked() {
	if c.retryTimer != nil {
		return
	}
	d := c.backoff.Duration()
	c.retryGen++
	g := c.retryGen
	c.retryTimer = c.clock.AfterFunc(d, func() { c.retry(g) })
	c.log.Infow("realtime_reconnect_scheduled", "in", d.String())
}

func (c *Controller) retry(g uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || g != c.retryGen {
		return
	}
	c.retryTimer = nil
	if c.state != StateDisconnected {
		return
	}
	c.connectLocked()
}

// EventTables are the tables the dashboard page subscribes to.
var EventTables = []string{realtime.TableSimulationEvents, realtime.TableCheckupEvents}
