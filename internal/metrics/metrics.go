// Package metrics exposes Prometheus instruments for purge cycles and notices.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "subpurge"

type PrometheusMetrics struct {
	registry      prometheus.Registerer
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	lastDeletion  prometheus.Gauge
}

// InitPrometheusMetrics builds the purge collectors and registers them on reg.
func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		registry: reg,
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Purge cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of purge cycles",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Purge notices by kind (user, admin) and status (sent, failed)",
			},
			[]string{"kind", "status"},
		),
		lastDeletion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_deletion_timestamp_seconds",
				Help:      "Unix time of the last successful account deletion",
			},
		),
	}

	reg.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.notifications,
		m.lastDeletion,
	)

	return m
}

func (m *PrometheusMetrics) RecordCycle(outcome string, duration time.Duration) {
	m.cyclesTotal.WithLabelValues(outcome).Inc()
	m.cycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordNotification(kind string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.notifications.WithLabelValues(kind, status).Inc()
}

func (m *PrometheusMetrics) SetLastDeletion(t time.Time) {
	m.lastDeletion.Set(float64(t.Unix()))
}

