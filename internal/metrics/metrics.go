package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts polls and notifications. A nil *Metrics is valid and records nothing.
type Metrics struct {
	polls         *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gowi_polls_total",
		Help: "Total poll iterations by loop and result.",
	}, []string{"loop", "result"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gowi_notifications_total",
		Help: "Total desktop notification operations by outcome.",
	}, []string{"outcome"})

	return &Metrics{
		polls:         registerCounterVec(registerer, polls),
		notifications: registerCounterVec(registerer, notifications),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// IncPoll records one iteration of loop with result "ok", "error" or "done".
func (m *Metrics) IncPoll(loop, result string) {
	if m == nil || m.polls == nil {
		return
	}
	m.polls.WithLabelValues(loop, result).Inc()
}

// IncNotification records outcome "shown", "cleared" or "failed".
func (m *Metrics) IncNotification(outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func registerCounterVec(registerer prometheus.Registerer, counter *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}
