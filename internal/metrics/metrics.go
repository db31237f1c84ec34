package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "simdash_"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	procedureCalls   *prometheus.CounterVec
	procedureLatency *prometheus.HistogramVec
	checkupsTotal    *prometheus.CounterVec
	alertsTotal      *prometheus.CounterVec
	realtimeClients  prometheus.Gauge
	generatorTicks   *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		procedureCalls = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "procedure_calls_total",
				Help: "Validated procedure calls by name and result",
			},
			[]string{"procedure", "result"},
		)
		procedureLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "procedure_latency_seconds",
				Help:    "Validated procedure latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure"},
		)
		checkupsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkups_total",
				Help: "Recorded checkups by status",
			},
			[]string{"status"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "critical_alerts_total",
				Help: "Critical alert dispatches by result",
			},
			[]string{"result"},
		)
		realtimeClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "realtime_clients",
				Help: "Connected realtime websocket clients",
			},
		)
		generatorTicks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generator_ticks_total",
				Help: "Temperature generator ticks by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			procedureCalls,
			procedureLatency,
			checkupsTotal,
			alertsTotal,
			realtimeClients,
			generatorTicks,
		)
	})
}

// ObserveProcedure records one procedure call.
func ObserveProcedure(name, result string, d time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if procedureCalls != nil {
		procedureCalls.WithLabelValues(name, result).Inc()
	}
	if procedureLatency != nil {
		procedureLatency.WithLabelValues(name).Observe(d.Seconds())
	}
}

// IncCheckup counts a stored checkup.
func IncCheckup(status string) {
	if checkupsTotal != nil {
		checkupsTotal.WithLabelValues(status).Inc()
	}
}

// IncAlert counts an alert dispatch attempt.
func IncAlert(result string) {
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(result).Inc()
	}
}

// AddRealtimeClients adjusts the connected client gauge.
func AddRealtimeClients(delta int) {
	if realtimeClients != nil {
		realtimeClients.Add(float64(delta))
	}
}

// IncGeneratorTick counts a generator tick outcome (skipped, recorded, failed).
func IncGeneratorTick(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if generatorTicks != nil {
		generatorTicks.WithLabelValues(outcome).Inc()
	}
}
