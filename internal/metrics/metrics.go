// Package metrics provides Prometheus metrics for the CloudStore client
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the CloudStore client
type Metrics struct {
	// RPC exchange metrics
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	// Operation metrics
	LookupDeferredTotal prometheus.Counter
	QueryPagesTotal     prometheus.Counter
	MutationsTotal      *prometheus.CounterVec
	EntitiesReadTotal   prometheus.Counter
}

// New creates and registers all client metrics. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}

	m.RPCRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudstore_rpc_requests_total",
			Help: "Total number of Datastore RPC exchanges",
		},
		[]string{"method", "status"},
	)

	m.RPCRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudstore_rpc_request_duration_seconds",
			Help:    "Duration of Datastore RPC exchanges in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.LookupDeferredTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudstore_lookup_deferred_keys_total",
			Help: "Total number of keys the service deferred to a follow-up lookup",
		},
	)

	m.QueryPagesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudstore_query_pages_total",
			Help: "Total number of query result pages fetched",
		},
	)

	m.MutationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudstore_mutations_total",
			Help: "Total number of mutations sent, by operation",
		},
		[]string{"operation"},
	)

	m.EntitiesReadTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudstore_entities_read_total",
			Help: "Total number of entities decoded from lookup and query responses",
		},
	)

	return m
}

// RecordRPC records one RPC exchange with its status
func (m *Metrics) RecordRPC(method string, status string, duration time.Duration) {
	m.RPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordMutation records one mutation by operation name
func (m *Metrics) RecordMutation(operation string) {
	m.MutationsTotal.WithLabelValues(operation).Inc()
}
