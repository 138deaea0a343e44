// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager manages the Prometheus metrics of a scrape. It implements
// scraper.Observer.
type MetricsManager struct {
	registry *prometheus.Registry

	pagesScraped  *prometheus.CounterVec
	reactions     *prometheus.CounterVec
	fetchAttempts prometheus.Counter
	datasets      *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace            string `json:"namespace"`
	Subsystem            string `json:"subsystem"`
	EnableGoMetrics      bool   `json:"enable_go_metrics"`
	EnableProcessMetrics bool   `json:"enable_process_metrics"`
}

// DefaultMetricsConfig names metrics ord_scraper_*
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:            "ord",
		Subsystem:            "scraper",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}
}

// NewMetricsManager creates a metrics manager on its own registry
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "ord"
	}
	if config.Subsystem == "" {
		config.Subsystem = "scraper"
	}

	registry := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(registry)

	return &MetricsManager{
		registry: registry,
		pagesScraped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "pages_scraped_total",
				Help:      "Total number of listing pages scraped",
			},
			[]string{"kind"},
		),
		reactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "reactions_total",
				Help:      "Total number of reactions processed by outcome",
			},
			[]string{"status"},
		),
		fetchAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "fetch_attempts_total",
				Help:      "Total number of reaction record fetch attempts",
			},
		),
		datasets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "datasets_total",
				Help:      "Total number of datasets processed by outcome",
			},
			[]string{"status"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "fetch_duration_seconds",
				Help:      "Time spent fetching one reaction record, retries included",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
			},
		),
	}
}

// PageScraped records a scraped listing page
func (mm *MetricsManager) PageScraped(kind string) {
	mm.pagesScraped.WithLabelValues(kind).Inc()
}

// FetchAttempt records one record fetch attempt
func (mm *MetricsManager) FetchAttempt() {
	mm.fetchAttempts.Inc()
}

// ReactionFinished records the outcome and duration of one reaction
func (mm *MetricsManager) ReactionFinished(status string, elapsed time.Duration) {
	mm.reactions.WithLabelValues(status).Inc()
	mm.fetchDuration.Observe(elapsed.Seconds())
}

// DatasetFinished records the outcome of one dataset
func (mm *MetricsManager) DatasetFinished(status string) {
	mm.datasets.WithLabelValues(status).Inc()
}

// Registry returns the registry the metrics live on
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// MetricsHandler returns the HTTP handler for the metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{Registry: mm.registry})
}
