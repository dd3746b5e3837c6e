package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitPrometheusMetrics(Namespace, reg)

	m.RecordCycle("deleted", 120*time.Millisecond)
	m.RecordCycle("deleted", 80*time.Millisecond)
	m.RecordCycle("empty", time.Millisecond)
	m.RecordNotification("user", true)
	m.RecordNotification("admin", false)
	m.SetLastDeletion(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("user", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("admin", "failed")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastDeletion))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "subpurge_cycles_total")
	assert.Contains(t, names, "subpurge_cycle_duration_seconds")
	assert.Contains(t, names, "subpurge_notifications_total")
	assert.Contains(t, names, "subpurge_last_deletion_timestamp_seconds")
}

func TestInitPrometheusMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitPrometheusMetrics(Namespace, reg)
	assert.Panics(t, func() { InitPrometheusMetrics(Namespace, reg) })
}
