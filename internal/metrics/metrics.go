// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	schemaCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_schema_cache_hits_total",
			Help: "Total number of schema index lookups served from cache.",
		},
	)
	schemaCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_schema_cache_misses_total",
			Help: "Total number of schema index lookups that required a build.",
		},
	)
	schemaCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_schema_cache_evictions_total",
			Help: "Total number of schema index entries evicted to respect the size bound.",
		},
	)
	schemaCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nl2sql_schema_cache_entries",
			Help: "Current number of cached schema index entries.",
		},
	)
	schemaIndexBuildSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_schema_index_build_seconds",
			Help:    "Schema introspection plus embedding latency by outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)
	gatekeeperVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_gatekeeper_verdicts_total",
			Help: "Gatekeeper verdicts by type and deciding rule.",
		},
		[]string{"verdict", "rule"},
	)
	groundingColumnFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_grounding_column_failures_total",
			Help: "Total number of columns skipped because value sampling failed.",
		},
	)
	groundedValuesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_grounded_values_total",
			Help: "Total number of grounded values injected into prompts.",
		},
	)
	questionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_question_duration_seconds",
			Help:    "End-to-end question handling latency by verdict.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verdict"},
	)
)

func init() {
	prometheus.MustRegister(
		schemaCacheHitsTotal,
		schemaCacheMissesTotal,
		schemaCacheEvictionsTotal,
		schemaCacheEntries,
		schemaIndexBuildSeconds,
		gatekeeperVerdictsTotal,
		groundingColumnFailuresTotal,
		groundedValuesTotal,
		questionDurationSeconds,
	)
}

func ObserveSchemaCacheHit() {
	schemaCacheHitsTotal.Inc()
}

func ObserveSchemaCacheMiss() {
	schemaCacheMissesTotal.Inc()
}

func ObserveSchemaCacheEviction() {
	schemaCacheEvictionsTotal.Inc()
}

func SetSchemaCacheEntries(n int) {
	schemaCacheEntries.Set(float64(n))
}

func ObserveSchemaIndexBuild(duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	schemaIndexBuildSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

func ObserveGatekeeperVerdict(verdict, rule string) {
	gatekeeperVerdictsTotal.WithLabelValues(verdict, rule).Inc()
}

func ObserveGroundingColumnFailure() {
	groundingColumnFailuresTotal.Inc()
}

func ObserveGroundedValues(n int) {
	if n <= 0 {
		return
	}
	groundedValuesTotal.Add(float64(n))
}

func ObserveQuestion(verdict string, duration time.Duration) {
	questionDurationSeconds.WithLabelValues(verdict).Observe(duration.Seconds())
}
