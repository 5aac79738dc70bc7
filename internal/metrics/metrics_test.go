package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.IncPoll("watch-ci", "ok")
	m.IncPoll("watch-ci", "ok")
	m.IncPoll("watch-ci", "error")
	m.IncNotification("shown")

	assert.InDelta(t, 2, testutil.ToFloat64(m.polls.WithLabelValues("watch-ci", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.polls.WithLabelValues("watch-ci", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.notifications.WithLabelValues("shown")), 0)
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)

	first.IncNotification("cleared")
	second.IncNotification("cleared")

	assert.InDelta(t, 2, testutil.ToFloat64(first.notifications.WithLabelValues("cleared")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncPoll("x", "ok")
		m.IncNotification("shown")
	})
}
