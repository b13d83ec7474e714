// Package metrics provides Prometheus observability metrics for the calendar
// agent: command/result volumes for business visibility and durations for
// operational health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly.
var factory = promauto.With(Registry)

// CommandsTotal counts processed free-text commands by recognized intent.
var CommandsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agent",
	Name:      "commands_total",
	Help:      "Total free-text commands processed, by intent",
}, []string{"intent"})

// ResultsTotal counts operation outcomes by result status.
var ResultsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agent",
	Name:      "results_total",
	Help:      "Total operation results, by status",
}, []string{"status"})

// CommandDurationSeconds tracks end-to-end command handling time, which is
// dominated by calendar backend round trips.
var CommandDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "agent",
	Name:      "command_duration_seconds",
	Help:      "Time taken to handle a command end to end",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
})

// SlotsReturned tracks how many candidate slots the optimizer produced.
var SlotsReturned = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "agent",
	Name:      "slots_returned",
	Help:      "Number of candidate slots returned by the slot scorer",
	Buckets:   []float64{0, 1, 2, 3},
})

// MeetingsAnalyzed records how many historical events fed preference learning.
var MeetingsAnalyzed = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "agent",
	Name:      "meetings_analyzed",
	Help:      "Historical events analyzed for preference learning in this session",
})
