package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"simdash"
	"simdash/internal/logger"
	"simdash/internal/models"
)

const (
	// BannerTTL is how long a command error stays visible.
	BannerTTL = 5 * time.Second

	testAlertTemperature = 95
	testAlertFallbackTo  = "test@example.com"
)

// RejectedError is a business-rule rejection reported by a procedure,
// e.g. "Simulation is already running".
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// TestAlertResult is shown in the test-alert panel.
type TestAlertResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CommandIssuer sends user intents to the validated entry points. Each
// command performs exactly one remote mutation and holds the loading flag for
// its whole duration. Errors are shown in a banner that clears itself after
// BannerTTL.
type CommandIssuer struct {
	ident    Identity
	procs    Procedures
	store    EventStore
	alerts   AlertDispatcher
	refresh  func(ctx context.Context) error
	clock    Clock
	log      *logger.Logger
	onChange func()

	mu          sync.Mutex
	loading     int
	banner      string
	bannerTimer Timer
	bannerGen   uint64
	testResult  *TestAlertResult
	closed      bool
}

type CommandOption func(*CommandIssuer)

func WithCommandClock(clk Clock) CommandOption {
	return func(c *CommandIssuer) { c.clock = clk }
}

func WithCommandLogger(l *logger.Logger) CommandOption {
	return func(c *CommandIssuer) { c.log = logger.OrNop(l) }
}

// WithCommandListener registers f for loading/banner/result changes. It runs
// outside internal locks.
func WithCommandListener(f func()) CommandOption {
	return func(c *CommandIssuer) { c.onChange = f }
}

// NewCommandIssuer builds an issuer; refresh is the data-refresh path run
// after each command.
func NewCommandIssuer(b Backend, refresh func(ctx context.Context) error, opts ...CommandOption) *CommandIssuer {
	c := &CommandIssuer{
		ident:   b,
		procs:   b,
		store:   b,
		alerts:  b,
		refresh: refresh,
		clock:   SystemClock(),
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CommandIssuer) StartSimulation(ctx context.Context) error {
	return c.issue(ctx, models.EventStarted)
}

func (c *CommandIssuer) StopSimulation(ctx context.Context) error {
	return c.issue(ctx, models.EventStopped)
}

func (c *CommandIssuer) issue(ctx context.Context, eventType string) error {
	user, err := currentUser(ctx, c.ident)
	if err != nil {
		return err
	}

	c.setLoading(true)
	defer c.setLoading(false)

	res, err := c.procs.InsertSimulationEvent(ctx, eventType, user.Email)
	if err != nil {
		err = fmt.Errorf("%s simulation: %w", eventType, err)
		c.log.Errorw("command_failed", "event_type", eventType, "err", err)
		c.showBanner(err.Error())
		return err
	}
	if !res.Success {
		// refresh first so the view reflects the state that caused the rejection
		c.runRefresh(ctx)
		msg := res.Error
		if msg == "" {
			msg = fmt.Sprintf("Failed to %s simulation", verb(eventType))
		}
		c.log.Infow("command_rejected", "event_type", eventType, "reason", msg)
		c.showBanner(msg)
		return &RejectedError{Message: msg}
	}

	c.log.Infow("command_applied", "event_type", eventType, "user", user.Email)
	c.runRefresh(ctx)
	return nil
}

func verb(eventType string) string {
	if eventType == models.EventStopped {
		return "stop"
	}
	return "start"
}

// InsertTestCheckup stores a critical 95°C reading tagged test-email-<unix ms>
// and then asks the server to send the alert for it. A failed alert is
// reported in the result and never undoes the insert.
func (c *CommandIssuer) InsertTestCheckup(ctx context.Context) (TestAlertResult, error) {
	user, err := currentUser(ctx, c.ident)
	if err != nil {
		return TestAlertResult{}, err
	}

	c.setLoading(true)
	defer c.setLoading(false)

	row, err := c.store.InsertCheckup(ctx, models.CheckupEvent{
		Temperature:  testAlertTemperature,
		Status:       models.StatusCritical,
		SimulationID: fmt.Sprintf("test-email-%d", c.clock.Now().UnixMilli()),
	})
	if err != nil {
		err = fmt.Errorf("insert test checkup: %w", err)
		c.log.Errorw("command_failed", "command", "test_checkup", "err", err)
		c.showBanner(err.Error())
		res := TestAlertResult{Message: "Failed to insert test checkup", Details: err.Error()}
		c.setTestResult(res)
		return res, err
	}

	email := user.Email
	if email == "" {
		email = testAlertFallbackTo
	}
	ts := row.Timestamp
	if ts.IsZero() {
		ts = c.clock.Now()
	}
	alert, err := c.alerts.SendCriticalAlert(ctx, simdash.AlertRequest{
		Temperature:  row.Temperature,
		SimulationID: row.SimulationID,
		Timestamp:    ts.UTC(),
		UserEmail:    email,
	})

	var res TestAlertResult
	switch {
	case err != nil:
		c.log.Warnw("test_alert_failed", "simulation_id", row.SimulationID, "err", err)
		res = TestAlertResult{Message: "Failed to send alert", Details: err.Error()}
	case !alert.Success:
		c.log.Warnw("test_alert_rejected", "simulation_id", row.SimulationID, "err", alert.Error, "details", alert.Details)
		res = TestAlertResult{Message: alert.Error, Details: alert.Details}
	default:
		res = TestAlertResult{Success: true, Message: alert.Message}
		if alert.EmailID != "" {
			res.Details = "Email ID: " + alert.EmailID
		}
	}
	c.setTestResult(res)
	c.runRefresh(ctx)
	return res, nil
}

func (c *CommandIssuer) runRefresh(ctx context.Context) {
	if c.refresh == nil {
		return
	}
	if err := c.refresh(ctx); err != nil {
		c.log.Warnw("command_refresh_failed", "err", err)
	}
}

func (c *CommandIssuer) setLoading(on bool) {
	c.mu.Lock()
	if on {
		c.loading++
	} else if c.loading > 0 {
		c.loading--
	}
	c.mu.Unlock()
	c.changed()
}

func (c *CommandIssuer) setTestResult(r TestAlertResult) {
	c.mu.Lock()
	c.testResult = &r
	c.mu.Unlock()
	c.changed()
}

// showBanner replaces the current banner and restarts its expiry timer.
func (c *CommandIssuer) showBanner(msg string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.banner = msg
	c.bannerGen++
	g := c.bannerGen
	c.bannerTimer = c.clock.AfterFunc(BannerTTL, func() { c.clearBanner(g) })
	c.mu.Unlock()
	c.changed()
}

func (c *CommandIssuer) clearBanner(g uint64) {
	c.mu.Lock()
	if c.closed || g != c.bannerGen {
		c.mu.Unlock()
		return
	}
	c.banner = ""
	c.bannerTimer = nil
	c.mu.Unlock()
	c.changed()
}

// DismissBanner clears the banner before it expires.
func (c *CommandIssuer) DismissBanner() {
	c.mu.Lock()
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	c.bannerGen++
	c.banner = ""
	c.mu.Unlock()
	c.changed()
}

func (c *CommandIssuer) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *CommandIssuer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// TestResult is the last test-alert outcome, nil before the first one.
func (c *CommandIssuer) TestResult() *TestAlertResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.testResult == nil {
		return nil
	}
	r := *c.testResult
	return &r
}

// Close cancels the banner timer.
func (c *CommandIssuer) Close() {
	c.mu.Lock()
	c.closed = true
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	c.mu.Unlock()
}

func (c *CommandIssuer) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
