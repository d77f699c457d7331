package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Lookups          *prometheus.CounterVec
	LookupFailures   *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	TargetsBlocked   *prometheus.CounterVec
	FieldsRedacted   *prometheus.CounterVec
	NormalizeSeconds prometheus.Histogram
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rdapgate_lookups_total",
			Help: "Total lookups served, by query type and registry",
		}, []string{"query_type", "registry"}),
		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rdapgate_lookup_failures_total",
			Help: "Total failed lookups, by error code",
		}, []string{"code"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rdapgate_cache_hits_total",
			Help: "Total lookups answered from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rdapgate_cache_misses_total",
			Help: "Total lookups that required an upstream fetch",
		}),
		TargetsBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rdapgate_targets_blocked_total",
			Help: "Total lookup targets rejected by the guard, by reason code",
		}, []string{"code"}),
		FieldsRedacted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rdapgate_fields_redacted_total",
			Help: "Total fields redacted, by jurisdiction",
		}, []string{"jurisdiction"}),
		NormalizeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rdapgate_normalize_duration_seconds",
			Help:    "Time spent fetching and normalizing an upstream response",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
