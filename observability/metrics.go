package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement activity observed at the RPC surface.
type SettlementMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	payments prometheus.Counter
	fees     prometheus.Counter
}

var (
	settlementOnce sync.Once
	settlementReg  *SettlementMetrics
)

// Settlement returns the lazily-initialised settlement metrics registry.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		m := &SettlementMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "RPC requests processed, by method.",
			}, []string{"method"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "RPC requests that failed, by method.",
			}, []string{"method"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "streampay",
				Subsystem: "rpc",
				Name:      "latency_seconds",
				Help:      "RPC request latency, by method.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			payments: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "settlement",
				Name:      "payments_total",
				Help:      "Successfully settled payments.",
			}),
			fees: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "settlement",
				Name:      "fee_events_total",
				Help:      "Payments that accrued a non-zero platform fee.",
			}),
		}
		prometheus.MustRegister(m.requests, m.errors, m.latency, m.payments, m.fees)
		settlementReg = m
	})
	return settlementReg
}

// ObserveRequest records one RPC call with its outcome and duration.
func (m *SettlementMetrics) ObserveRequest(method string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
	if failed {
		m.errors.WithLabelValues(method).Inc()
	}
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordPayment counts a settled payment and whether it accrued a fee.
func (m *SettlementMetrics) RecordPayment(feeCharged bool) {
	if m == nil {
		return
	}
	m.payments.Inc()
	if feeCharged {
		m.fees.Inc()
	}
}
