// Package resultsmetrics records service, serializer and cache metrics for the
// results module.
package resultsmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "live_results"

// ResultsMetrics is implemented by the Prometheus recorder and the no-op used in tests.
type ResultsMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	RecordQueueDepth(competitionID string, depth int)
	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheEviction()
}

// PrometheusMetrics registers its collectors on the given registerer.
type PrometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec

	queueDepth *prometheus.GaugeVec
	cache      *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the collectors.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"service", "operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"service", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failure_total",
			Help:      "Service operations that failed with an infrastructure error or panic.",
		}, []string{"service", "operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency including time spent queued.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mutation_queue_depth",
			Help:      "Pending and running mutations per competition.",
		}, []string{"competition_id"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "competition_cache_total",
			Help:      "Competition cache lookups by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.duration, m.queueDepth, m.cache} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordQueueDepth drops the series once the queue drains so idle competitions
// do not accumulate label values.
func (m *PrometheusMetrics) RecordQueueDepth(competitionID string, depth int) {
	if depth == 0 {
		m.queueDepth.DeleteLabelValues(competitionID)
		return
	}
	m.queueDepth.WithLabelValues(competitionID).Set(float64(depth))
}

func (m *PrometheusMetrics) RecordCacheHit()      { m.cache.WithLabelValues("hit").Inc() }
func (m *PrometheusMetrics) RecordCacheMiss()     { m.cache.WithLabelValues("miss").Inc() }
func (m *PrometheusMetrics) RecordCacheEviction() { m.cache.WithLabelValues("eviction").Inc() }

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() ResultsMetrics { return NoOpMetrics{} }

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordQueueDepth(string, int)                                           {}
func (NoOpMetrics) RecordCacheHit()                                                        {}
func (NoOpMetrics) RecordCacheMiss()                                                       {}
func (NoOpMetrics) RecordCacheEviction()                                                   {}
