package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"simdash/internal/logger"
	"simdash/internal/models"
)

// View is everything the dashboard page renders.
type View struct {
	User          string           `json:"user"`
	Status        SimulationStatus `json:"status"`
	Stats         TemperatureStats `json:"stats"`
	Timeline      []TimelinePoint  `json:"timeline"`
	Checkups      int              `json:"checkups"`
	Connection    ConnState        `json:"connection"`
	RealtimeError string           `json:"realtime_error,omitempty"`
	Banner        string           `json:"banner,omitempty"`
	Loading       bool             `json:"loading"`
	TestAlert     *TestAlertResult `json:"test_alert,omitempty"`
	RefreshError  string           `json:"refresh_error,omitempty"`
	SignedOut     bool             `json:"signed_out,omitempty"`
}

type Options struct {
	Clock        Clock
	Log          *logger.Logger
	PollInterval time.Duration
	// NoReconnect keeps the controller on polling after a drop.
	NoReconnect bool
}

// Dashboard is the simulation page: a Refresher fed by a Controller, plus
// the command issuer.
//
// Polling and reconnects run only while the identity holds. Each poll tick
// re-resolves the user first, and so does any query or subscribe failing
// with ErrNotAuthenticated. Once the user is gone, realtime and the
// refresher are shut down and Err reports ErrNotAuthenticated.
type Dashboard struct {
	backend    Backend
	log        *logger.Logger
	refresher  *Refresher
	controller *Controller
	commands   *CommandIssuer
	changes    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lifecycle serialises starting the controller against Unmount and
	// identity loss.
	lifecycle sync.Mutex

	mu       sync.Mutex
	user     *models.User
	mounted  bool
	closed   bool
	checking bool
	authErr  error
}

func New(b Backend, opts Options) *Dashboard {
	clk := opts.Clock
	if clk == nil {
		clk = SystemClock()
	}
	log := logger.OrNop(opts.Log)
	d := &Dashboard{
		backend: b,
		log:     log,
		changes: make(chan struct{}, 1),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.refresher = NewRefresher(b, log.Named("refresher"), d.notify,
		WithRefreshErrorHandler(d.checkAuthError),
	)

	copts := []ControllerOption{
		WithClock(clk),
		WithControllerLogger(log.Named("realtime")),
		WithPollInterval(opts.PollInterval),
		WithStateListener(func(ConnState) { d.notify() }),
		WithDisconnectListener(d.checkAuthError),
	}
	if opts.NoReconnect {
		copts = append(copts, WithoutReconnect())
	}
	poll := func() { d.verifyIdentity(d.refresher.TriggerAll) }
	d.controller = NewController(b, EventTables, d.refresher.TriggerTable, poll, copts...)
	d.commands = NewCommandIssuer(b, d.refresher.Refresh,
		WithCommandClock(clk),
		WithCommandLogger(log.Named("commands")),
		WithCommandListener(d.notify),
	)
	return d
}

// Mount resolves the signed-in user, loads both logs and starts realtime.
// An initial refresh failure is logged; the controller's polling retries it.
func (d *Dashboard) Mount(ctx context.Context) error {
	user, err := currentUser(ctx, d.backend)
	if err != nil {
		return err
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrRefresherClosed
	}
	if d.mounted {
		d.mu.Unlock()
		return nil
	}
	d.mounted = true
	d.user = user
	d.mu.Unlock()

	if err := d.refresher.Refresh(ctx); err != nil {
		d.log.Warnw("initial_refresh_failed", "err", err)
	}

	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	d.mu.Lock()
	closed, authErr := d.closed, d.authErr
	d.mu.Unlock()
	switch {
	case closed:
		return ErrRefresherClosed
	case authErr != nil:
		return authErr
	}
	d.controller.Start(ctx)
	d.log.Infow("dashboard_mounted", "user", user.Email)
	return nil
}

// Unmount stops realtime and polling, then waits for background refreshes
// and identity checks. Nothing changes the view afterwards. A Dashboard
// cannot be mounted again.
func (d *Dashboard) Unmount() {
	d.lifecycle.Lock()
	d.mu.Lock()
	d.mounted = false
	d.closed = true
	d.mu.Unlock()
	d.lifecycle.Unlock()

	d.cancel()
	d.controller.Stop()
	d.commands.Close()
	d.refresher.Close()
	d.wg.Wait()
}

// Err is ErrNotAuthenticated once the signed-in user has been lost.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authErr
}

// checkAuthError runs from refresher and controller callbacks and must not
// block.
func (d *Dashboard) checkAuthError(err error) {
	if errors.Is(err, ErrNotAuthenticated) {
		d.verifyIdentity(nil)
	}
}

// verifyIdentity re-resolves the user in the background, then calls next
// unless the identity is gone. At most one check runs at a time; calls made
// meanwhile are dropped.
func (d *Dashboard) verifyIdentity(next func()) {
	d.mu.Lock()
	if d.closed || d.authErr != nil || d.checking {
		d.mu.Unlock()
		return
	}
	d.checking = true
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		u, err := d.backend.CurrentUser(d.ctx)

		d.mu.Lock()
		d.checking = false
		d.mu.Unlock()

		switch {
		case d.ctx.Err() != nil:
			return
		case err == nil && u == nil, errors.Is(err, ErrNotAuthenticated):
			d.identityLost(err)
			return
		case err != nil:
			d.log.Warnw("identity_check_failed", "err", err)
		}
		if next != nil {
			next()
		}
	}()
}

func (d *Dashboard) identityLost(err error) {
	d.lifecycle.Lock()
	d.mu.Lock()
	if d.closed || d.authErr != nil {
		d.mu.Unlock()
		d.lifecycle.Unlock()
		return
	}
	d.authErr = ErrNotAuthenticated
	d.user = nil
	d.mu.Unlock()
	d.lifecycle.Unlock()

	d.log.Warnw("identity_lost", "err", err)
	d.controller.Stop()
	d.refresher.Close()
	d.notify()
}

func (d *Dashboard) Commands() *CommandIssuer { return d.commands }

func (d *Dashboard) Refresher() *Refresher { return d.refresher }

func (d *Dashboard) Controller() *Controller { return d.controller }

// Changes is signalled (coalesced) whenever the view may have changed.
func (d *Dashboard) Changes() <-chan struct{} { return d.changes }

func (d *Dashboard) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// View derives the current page state.
func (d *Dashboard) View() View {
	sims := d.refresher.SimulationEvents()
	checkups := d.refresher.Checkups()

	v := View{
		Status:     DeriveStatus(sims),
		Stats:      ComputeTemperatureStats(checkups),
		Timeline:   BuildTimeline(sims),
		Checkups:   len(checkups),
		Connection: d.controller.State(),
		Banner:     d.commands.Banner(),
		Loading:    d.commands.Loading(),
		TestAlert:  d.commands.TestResult(),
	}
	d.mu.Lock()
	if d.user != nil {
		v.User = d.user.Email
	}
	v.SignedOut = d.authErr != nil
	d.mu.Unlock()
	if v.Connection == StateDisconnected {
		if err := d.controller.LastError(); err != nil {
			v.RealtimeError = err.Error()
		}
	}
	if err := d.refresher.LastError(); err != nil {
		v.RefreshError = err.Error()
	}
	return v
}
