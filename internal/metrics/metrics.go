// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "passvault"

var (
	// HTTP/gRPC request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests",
		},
		[]string{"service", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// 1 for the state the datastore connection is currently in, 0 otherwise.
	DatastoreState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datastore_state",
			Help:      "Current datastore connection state",
		},
		[]string{"state"},
	)

	ReconnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datastore_connect_attempts_total",
			Help:      "Datastore connection attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		DatastoreState,
		ReconnectAttempts,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one finished request.
func RecordRequest(service, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(service, method, status).Inc()
	RequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SetDatastoreState marks current as the active state among all.
func SetDatastoreState(current string, all ...string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		DatastoreState.WithLabelValues(s).Set(v)
	}
}

// RecordConnectAttempt counts one connection attempt.
func RecordConnectAttempt(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ReconnectAttempts.WithLabelValues(outcome).Inc()
}
