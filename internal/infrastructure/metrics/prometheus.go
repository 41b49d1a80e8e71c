// Package metrics records the outcome of tool runs in Prometheus format.
// The tools exit before a scrape could happen, so the metrics are written
// to a file picked up by the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values
const (
	Applied = "applied"
	Skipped = "skipped"
	Failed  = "failed"
	Passed  = "passed"
)

// Exporter holds the metrics of one run
type Exporter struct {
	registry *prometheus.Registry

	scripts        *prometheus.CounterVec
	statements     *prometheus.CounterVec
	scriptDuration prometheus.Histogram
	smokeSteps     *prometheus.CounterVec
	lastRun        *prometheus.GaugeVec
	lastSuccess    *prometheus.GaugeVec
}

// NewExporter creates an exporter with its own registry
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,
		scripts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telops_scripts_total",
				Help: "Number of .sql scripts processed by result",
			},
			[]string{"result"},
		),
		statements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telops_statements_total",
				Help: "Number of statements executed, ignored ones counted separately",
			},
			[]string{"outcome"},
		),
		scriptDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telops_script_duration_seconds",
			Help:    "Duration of applied scripts in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		}),
		smokeSteps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telops_smoke_steps_total",
				Help: "Number of smoke test steps by step and result",
			},
			[]string{"step", "result"},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "telops_last_run_timestamp_seconds",
				Help: "Unix time the command last finished",
			},
			[]string{"command"},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "telops_last_run_success",
				Help: "1 when the last run of the command succeeded, 0 otherwise",
			},
			[]string{"command"},
		),
	}
}

// RecordScript records one processed script
func (e *Exporter) RecordScript(result string, statements, ignored int, d time.Duration) {
	e.scripts.WithLabelValues(result).Inc()
	if result == Skipped {
		return
	}
	e.statements.WithLabelValues("executed").Add(float64(statements - ignored))
	e.statements.WithLabelValues("ignored").Add(float64(ignored))
	if result == Applied {
		e.scriptDuration.Observe(d.Seconds())
	}
}

// RecordSmokeStep records one smoke test step
func (e *Exporter) RecordSmokeStep(step string, passed bool) {
	result := Passed
	if !passed {
		result = Failed
	}
	e.smokeSteps.WithLabelValues(step, result).Inc()
}

// RecordRun marks the end of a command run
func (e *Exporter) RecordRun(command string, success bool, at time.Time) {
	e.lastRun.WithLabelValues(command).Set(float64(at.Unix()))
	value := 0.0
	if success {
		value = 1
	}
	e.lastSuccess.WithLabelValues(command).Set(value)
}

// WriteTextfile writes the metrics to path, replacing it atomically
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
