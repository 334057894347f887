package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// TurnsTotal cuenta llamadas al orquestador por resultado: ok, fallback, rejected, error.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns handled by outcome",
		},
		[]string{"outcome"},
	)

	GenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "chat",
			Name:      "generation_total",
			Help:      "Model invocations by outcome (ok, empty, error)",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shop",
			Subsystem: "chat",
			Name:      "generation_duration_seconds",
			Help:      "Model invocation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	CatalogLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "catalog",
			Name:      "lookups_total",
			Help:      "Catalog lookups during context building by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	CatalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "catalog",
			Name:      "cache_total",
			Help:      "Catalog cache lookups (hit, miss)",
		},
		[]string{"result"},
	)
)

// Handler expone las metricas en formato Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
