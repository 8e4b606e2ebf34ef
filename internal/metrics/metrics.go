// Package metrics exposes simulation and ranking telemetry as Prometheus
// collectors on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abrezinsky/lottorank/internal/models"
)

const namespace = "lottorank"

// Task outcomes
const (
	OutcomeExecuted = "executed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Collector records simulation and ranking events
type Collector struct {
	registry *prometheus.Registry

	tasks        *prometheus.CounterVec
	tickets      *prometheus.CounterVec
	taskDuration prometheus.Histogram
	running      prometheus.Gauge
	jobs         *prometheus.CounterVec
	computed     prometheus.Counter
	reused       prometheus.Counter
	lastRanked   prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.tasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tasks_total",
			Help:      "Strategy and draw tasks by outcome",
		},
		[]string{"outcome"},
	)
	c.tickets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tickets_total",
			Help:      "Tickets generated and evaluated per strategy",
		},
		[]string{"strategy"},
	)
	c.taskDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "task_duration_seconds",
			Help:      "Time to simulate one strategy against one draw",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)
	c.running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "running",
			Help:      "1 while a backfill is running",
		},
	)
	c.jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "jobs_total",
			Help:      "Finished backfill jobs by final status",
		},
		[]string{"status"},
	)
	c.computed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rankings",
			Name:      "computed_total",
			Help:      "Leaderboards computed and published",
		},
	)
	c.reused = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rankings",
			Name:      "reused_total",
			Help:      "Compute requests answered with an existing leaderboard",
		},
	)
	c.lastRanked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rankings",
			Name:      "last_draw_number",
			Help:      "Draw number of the most recently published leaderboard",
		},
	)

	c.registry.MustRegister(
		c.tasks,
		c.tickets,
		c.taskDuration,
		c.running,
		c.jobs,
		c.computed,
		c.reused,
		c.lastRanked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) TaskExecuted(strategyKey string, tickets int, elapsed time.Duration) {
	c.tasks.WithLabelValues(OutcomeExecuted).Inc()
	c.tickets.WithLabelValues(strategyKey).Add(float64(tickets))
	c.taskDuration.Observe(elapsed.Seconds())
}

func (c *Collector) TaskSkipped(n int) {
	if n > 0 {
		c.tasks.WithLabelValues(OutcomeSkipped).Add(float64(n))
	}
}

func (c *Collector) TaskFailed(strategyKey string) {
	c.tasks.WithLabelValues(OutcomeFailed).Inc()
}

func (c *Collector) SetRunning(running bool) {
	if running {
		c.running.Set(1)
		return
	}
	c.running.Set(0)
}

func (c *Collector) JobFinished(status models.JobStatus) {
	c.jobs.WithLabelValues(string(status)).Inc()
}

func (c *Collector) RankingComputed(drawNumber int) {
	c.computed.Inc()
	c.lastRanked.Set(float64(drawNumber))
}

func (c *Collector) RankingReused(drawNumber int) {
	c.reused.Inc()
}

// Value returns the current value of a counter or gauge series, or 0 if absent.
// labels are name=value pairs.
func (c *Collector) Value(name string, labels ...string) float64 {
	// Gather still returns the healthy families when one collector fails
	families, _ := c.registry.Gather()
	want := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for k, v := range want {
				found := false
				for _, p := range m.GetLabel() {
					if p.GetName() == k && p.GetValue() == v {
						found = true
						break
					}
				}
				if !found {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}
