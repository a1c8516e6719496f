// Package metrics provides Prometheus collectors for the searchd server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors tracked by the server.
type Metrics struct {
	// ActiveSessions tracks currently registered client sessions.
	ActiveSessions prometheus.Gauge
	// SearchesTotal counts searches by result class.
	SearchesTotal *prometheus.CounterVec
	// SearchDuration observes per-search latency in seconds.
	SearchDuration prometheus.Histogram
	// TimeoutsTotal counts sessions closed by idle timeout.
	TimeoutsTotal prometheus.Counter
	// HandshakeFailuresTotal counts dropped connections that failed the
	// TLS handshake.
	HandshakeFailuresTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "searchd",
			Name:      "active_sessions",
			Help:      "Number of live client sessions",
		}),
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "searches_total",
			Help:      "Total searches processed, by result class",
		}, []string{"result"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "search_duration_seconds",
			Help:      "Search execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TimeoutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "session_timeouts_total",
			Help:      "Sessions closed due to inactivity",
		}),
		HandshakeFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "handshake_failures_total",
			Help:      "Connections dropped during the TLS handshake",
		}),
		registry: reg,
	}
}

// Handler returns the HTTP handler exposing the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(result string, seconds float64) {
	m.SearchesTotal.WithLabelValues(resultClass(result)).Inc()
	m.SearchDuration.Observe(seconds)
}

// resultClass folds error messages into a single label value so the counter
// cardinality stays bounded.
func resultClass(result string) string {
	switch result {
	case "STRING EXISTS":
		return "exists"
	case "STRING NOT FOUND":
		return "not_found"
	case "FILE NOT FOUND":
		return "file_not_found"
	default:
		return "error"
	}
}
