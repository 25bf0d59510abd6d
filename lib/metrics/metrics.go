// Package metrics exposes Prometheus collectors for the upstream API, the
// list queries, component recovery boundaries and the session store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pthm/geoform/lib/query"
)

const namespace = "geoform"

// Recorder owns a registry and the collectors registered on it. It satisfies
// the observer interfaces of countryapi, query, session and hxcmp.
type Recorder struct {
	Registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	queryFetches     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	queriesInFlight  *prometheus.GaugeVec
	recoveries       *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
}

// New creates a Recorder with its own registry, including the process and Go
// runtime collectors.
func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),

		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Requests sent to the country API.",
			},
			[]string{"op", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Duration of country API requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"op"},
		),
		queryFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "fetches_total",
				Help:      "Finished list fetches by outcome. Discarded fetches were superseded before they returned.",
			},
			[]string{"query", "outcome"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of list fetches.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"query"},
		),
		queriesInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "inflight",
				Help:      "List fetches currently running.",
			},
			[]string{"query"},
		),
		recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "component",
				Name:      "recoveries_total",
				Help:      "Component requests that panicked and rendered the fallback.",
			},
			[]string{"component"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "Live form sessions.",
			},
		),
	}

	r.Registry.MustRegister(
		r.upstreamRequests,
		r.upstreamDuration,
		r.queryFetches,
		r.queryDuration,
		r.queriesInFlight,
		r.recoveries,
		r.sessionsActive,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return r
}

// Handler returns an HTTP handler exposing the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// RequestDone records an upstream request. status is 0 when no response was
// received.
func (r *Recorder) RequestDone(op string, status int, d time.Duration, _ error) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.upstreamRequests.WithLabelValues(op, label).Inc()
	r.upstreamDuration.WithLabelValues(op).Observe(d.Seconds())
}

// FetchStarted records the start of a list fetch.
func (r *Recorder) FetchStarted(name string) {
	r.queriesInFlight.WithLabelValues(name).Inc()
}

// FetchFinished records the end of a list fetch.
func (r *Recorder) FetchFinished(name string, outcome query.Outcome, d time.Duration) {
	r.queriesInFlight.WithLabelValues(name).Dec()
	r.queryFetches.WithLabelValues(name, string(outcome)).Inc()
	r.queryDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Recovered records a panic caught by a component boundary.
func (r *Recorder) Recovered(component string) {
	r.recoveries.WithLabelValues(component).Inc()
}

// SessionsActive sets the live session count.
func (r *Recorder) SessionsActive(n int) {
	r.sessionsActive.Set(float64(n))
}
