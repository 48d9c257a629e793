// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trading metrics
	TradesSubmitted   *prometheus.CounterVec
	TradesCompleted   *prometheus.CounterVec
	TradesFailed      *prometheus.CounterVec
	VolumeLamports    prometheus.Counter
	FeesLamports      prometheus.Counter
	SubmissionRetries *prometheus.CounterVec

	// Session metrics
	SessionStatus       *prometheus.GaugeVec
	ConsecutiveFailures prometheus.Gauge
	CircuitBreakerTrips prometheus.Counter

	// Chain metrics
	RPCCallLatency  *prometheus.HistogramVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	EligibleWallets prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "volume_engine"
	}

	return &Metrics{
		TradesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_submitted_total",
			Help:      "Total number of trade attempts started, by side",
		}, []string{"side"}),
		TradesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_completed_total",
			Help:      "Total number of trades submitted successfully, by side",
		}, []string{"side"}),
		TradesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_failed_total",
			Help:      "Total number of failed trade attempts, by side and kind",
		}, []string{"side", "kind"}),
		VolumeLamports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "volume_lamports_total",
			Help:      "Cumulative traded volume in lamports, completed trades only",
		}),
		FeesLamports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "fees_lamports_total",
			Help:      "Cumulative estimated transaction fees in lamports",
		}),
		SubmissionRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "submission_retries_total",
			Help:      "Total number of in-attempt submission retries, by failure kind",
		}, []string{"kind"}),

		SessionStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "status",
			Help:      "Current session status (1 for the active status, 0 otherwise)",
		}, []string{"status"}),
		ConsecutiveFailures: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "consecutive_failures",
			Help:      "Current consecutive failure count feeding the circuit breaker",
		}),
		CircuitBreakerTrips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of sessions terminated by the circuit breaker",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_duration_seconds",
			Help:      "RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "cache_hits_total",
			Help:      "Chain state cache hits by cache",
		}, []string{"cache"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "cache_misses_total",
			Help:      "Chain state cache misses by cache",
		}, []string{"cache"}),
		EligibleWallets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "eligible_wallets",
			Help:      "Number of wallets eligible for trading at last selection",
		}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTradeSubmitted increments the trade attempt counter.
func RecordTradeSubmitted(side string) {
	DefaultMetrics.TradesSubmitted.WithLabelValues(side).Inc()
}

// RecordTradeCompleted records a successful trade with its volume and fee.
func RecordTradeCompleted(side string, volumeLamports, feeLamports uint64) {
	DefaultMetrics.TradesCompleted.WithLabelValues(side).Inc()
	DefaultMetrics.VolumeLamports.Add(float64(volumeLamports))
	DefaultMetrics.FeesLamports.Add(float64(feeLamports))
}

// RecordTradeFailed records a failed trade attempt by failure kind.
func RecordTradeFailed(side, kind string) {
	DefaultMetrics.TradesFailed.WithLabelValues(side, kind).Inc()
}

// RecordSubmissionRetry records one in-attempt retry by failure kind.
func RecordSubmissionRetry(kind string) {
	DefaultMetrics.SubmissionRetries.WithLabelValues(kind).Inc()
}

// UpdateSessionStatus sets the session status gauge to the given status.
func UpdateSessionStatus(status string) {
	for _, s := range []string{"idle", "running", "paused", "stopped", "error"} {
		v := 0.0
		if s == status {
			v = 1.0
		}
		DefaultMetrics.SessionStatus.WithLabelValues(s).Set(v)
	}
}

// UpdateConsecutiveFailures sets the breaker input gauge.
func UpdateConsecutiveFailures(n int) {
	DefaultMetrics.ConsecutiveFailures.Set(float64(n))
}

// RecordCircuitBreakerTrip increments the breaker trip counter.
func RecordCircuitBreakerTrip() {
	DefaultMetrics.CircuitBreakerTrips.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordCacheAccess records a chain state cache lookup outcome.
func RecordCacheAccess(cache string, hit bool) {
	if hit {
		DefaultMetrics.CacheHits.WithLabelValues(cache).Inc()
	} else {
		DefaultMetrics.CacheMisses.WithLabelValues(cache).Inc()
	}
}

// UpdateEligibleWallets sets the eligible wallet gauge.
func UpdateEligibleWallets(n int) {
	DefaultMetrics.EligibleWallets.Set(float64(n))
}
