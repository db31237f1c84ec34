package service

import (
	"context"
	"math/rand"
	"time"

	"simdash"
	"simdash/internal/logger"
	"simdash/internal/metrics"
	"simdash/internal/models"
)

// GeneratorService writes a random reading for the active simulation on every tick
// and raises an alert for critical ones.
type GeneratorService struct {
	procs  Procedures
	alerts Alerts
	log    *logger.Logger
	randn  func(n int) int
	now    func() time.Time
}

// NewGeneratorService returns a generator with defaults.
func NewGeneratorService(procs Procedures, alerts Alerts, log *logger.Logger) *GeneratorService {
	return &GeneratorService{
		procs:  procs,
		alerts: alerts,
		log:    logger.OrNop(log),
		randn:  rand.Intn,
		now:    time.Now,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (g *GeneratorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := g.Tick(ctx); err != nil {
				g.log.Errorw("generator_tick_failed", "err", err)
			}
		}
	}
}

// Tick performs one generation step. It reports whether a reading was stored.
func (g *GeneratorService) Tick(ctx context.Context) (bool, error) {
	simID, err := g.procs.ActiveSimulationID(ctx)
	if err != nil {
		metrics.IncGeneratorTick("failed")
		return false, err
	}
	if simID == "" {
		g.log.Debugw("generator_skipped", "reason", "no active simulation")
		metrics.IncGeneratorTick("skipped")
		return false, nil
	}

	temperature := g.randn(101)
	res, err := g.procs.InsertCheckupEvent(ctx, temperature, simID)
	if err != nil {
		metrics.IncGeneratorTick("failed")
		return false, err
	}
	if !res.Success {
		g.log.Infow("generator_rejected", "error", res.Error, "simulation_id", simID)
		metrics.IncGeneratorTick("skipped")
		return false, nil
	}
	metrics.IncGeneratorTick("recorded")
	g.log.Debugw("generator_recorded", "temperature", temperature, "simulation_id", simID)

	if temperature >= models.CriticalThreshold && g.alerts != nil {
		ar := g.alerts.SendCriticalAlert(ctx, simdash.AlertRequest{
			Temperature:  temperature,
			SimulationID: simID,
			Timestamp:    g.now().UTC(),
		})
		if !ar.Success {
			g.log.Warnw("generator_alert_failed", "error", ar.Error, "details", ar.Details)
		}
	}
	return true, nil
}
