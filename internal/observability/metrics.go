package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the owie service.
type Metrics struct {
	OwiesLogged prometheus.Counter

	// Outbound weather API metrics.
	FetchAttempts prometheus.Counter
	FetchRetries  prometheus.Counter
	FetchFailures *prometheus.CounterVec // label: reason={transport,rate_limited,upstream_status,circuit_open,incomplete}

	InsertErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.OwiesLogged,
		m.FetchAttempts,
		m.FetchRetries,
		m.FetchFailures,
		m.InsertErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		OwiesLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ouch",
			Name:      "owies_logged_total",
			Help:      "Total owie events persisted.",
		}),
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ouch",
			Name:      "weather_fetch_attempts_total",
			Help:      "Total outbound weather API request attempts, including retries.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ouch",
			Name:      "weather_fetch_retries_total",
			Help:      "Total weather API attempts that were retried after a transient failure.",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ouch",
			Name:      "weather_fetch_failures_total",
			Help:      "Weather API calls that failed for good, by reason.",
		}, []string{"reason"}),
		InsertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ouch",
			Name:      "insert_errors_total",
			Help:      "Total failed owie_logs inserts.",
		}),
	}
}
