package transport

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics tracks outgoing request volume and forced-logout triggers.
type clientMetrics struct {
	requests     *prometheus.CounterVec
	unauthorized prometheus.Counter
}

// newClientMetrics builds the collectors. Clients are rebuilt on every token
// change, so one registry sees these collector names many times over a
// process lifetime; registration reuses the instance a previous client
// already installed.
func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medcare_client_requests_total",
				Help: "Outgoing API requests by method and status code",
			},
			[]string{"method", "status"},
		),
		unauthorized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "medcare_client_unauthorized_total",
				Help: "Responses that forced a session teardown",
			},
		),
	}

	if reg != nil {
		m.requests = reuse(reg, m.requests)
		m.unauthorized = reuse(reg, m.unauthorized)
	}
	return m
}

// reuse registers the collector, or returns the already-registered instance
// when one exists under the same name.
func reuse[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	err := reg.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector.(C)
	}
	panic(err)
}

func (m *clientMetrics) observe(method string, statusCode int) {
	m.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}
