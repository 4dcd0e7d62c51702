package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultCollectInterval = 10 * time.Second

var (
	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_tool_invocations_total",
			Help: "Total number of workflow tool invocations labeled by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
	toolDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_tool_duration_seconds",
			Help:    "Duration of workflow tool invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
	stageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_stage_transitions_total",
			Help: "Total number of conversation stage transitions",
		},
		[]string{"from", "to"},
	)
	callsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_calls_started_total",
			Help: "Total number of calls started",
		},
	)
	callsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_calls_ended_total",
			Help: "Total number of calls ended labeled by reason",
		},
		[]string{"reason"},
	)
	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_reservations_total",
			Help: "Total number of reservation attempts labeled by outcome",
		},
		[]string{"outcome"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	activeCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_active_calls",
			Help: "Current number of calls with a live session",
		},
	)
	inventoryUnits = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rental_inventory_units",
			Help: "Equipment units per status at the last inventory snapshot",
		},
		[]string{"status"},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_http_requests_total",
			Help: "Total number of HTTP requests labeled by route, method and status class",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	callsByStage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rental_calls_by_stage",
			Help: "Number of live calls per conversation stage",
		},
		[]string{"stage"},
	)
)

// Reservation outcomes.
const (
	ReservationWon  = "reserved"
	ReservationLost = "lost"
)

// RecordToolInvocation increments tool counters and records duration.
func RecordToolInvocation(tool, outcome string, duration time.Duration) {
	if tool == "" {
		tool = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}

	toolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	toolDurationSeconds.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordStageTransition tracks conversation stage transitions.
func RecordStageTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordHTTPRequest tracks one served HTTP request. Status is collapsed to its class (2xx, 4xx).
func RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}

	httpRequestsTotal.WithLabelValues(route, method, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func RecordCallStarted() {
	callsStartedTotal.Inc()
}

func RecordCallEnded(reason string) {
	if reason == "" {
		reason = "unknown"
	}

	callsEndedTotal.WithLabelValues(reason).Inc()
}

func RecordReservation(outcome string) {
	reservationsTotal.WithLabelValues(outcome).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// SetInventoryUnits replaces the per-status unit gauges.
func SetInventoryUnits(counts map[string]int) {
	inventoryUnits.Reset()
	for status, n := range counts {
		inventoryUnits.WithLabelValues(status).Set(float64(n))
	}
}

// StageCounter reports how many live calls sit in each stage.
type StageCounter interface {
	CountByStage(ctx context.Context) (map[string]int, error)
}

// StageCollector periodically gathers per-stage call counts and emits gauge metrics.
type StageCollector struct {
	source   StageCounter
	stages   []string
	interval time.Duration
	log      *slog.Logger
}

// NewStageCollector builds a collector. stages are always reported, with zero when empty.
func NewStageCollector(source StageCounter, stages []string, interval time.Duration, log *slog.Logger) *StageCollector {
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	if log == nil {
		log = slog.Default()
	}

	return &StageCollector{
		source:   source,
		stages:   stages,
		interval: interval,
		log:      log,
	}
}

// Run polls the source until ctx is cancelled.
func (c *StageCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.collect(ctx); err != nil {
			c.log.Warn("failed to collect stage metrics", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StageCollector) collect(ctx context.Context) error {
	counts, err := c.source.CountByStage(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	activeCalls.Set(float64(total))

	callsByStage.Reset()
	for _, stage := range c.stages {
		callsByStage.WithLabelValues(stage).Set(float64(counts[stage]))
		delete(counts, stage)
	}
	for stage, n := range counts {
		callsByStage.WithLabelValues(stage).Set(float64(n))
	}

	return nil
}
