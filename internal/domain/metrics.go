package domain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	items    *prometheus.CounterVec
	cycles   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cableposter",
			Name:      "items_total",
			Help:      "Per-item pipeline outcomes.",
		}, []string{"cycle", "outcome"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cableposter",
			Name:      "cycles_total",
			Help:      "Completed cycles by result.",
		}, []string{"cycle", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cableposter",
			Name:      "cycle_duration_seconds",
			Help:      "Cycle wall time.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"cycle"}),
	}
	if reg != nil {
		reg.MustRegister(m.items, m.cycles, m.duration)
	}
	return m
}

func (m *Metrics) item(cycle, outcome string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(cycle, outcome).Inc()
}

func (m *Metrics) cycle(cycle, result string, started time.Time) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(cycle, result).Inc()
	m.duration.WithLabelValues(cycle).Observe(time.Since(started).Seconds())
}
