package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillsSubmittedTotal counts bill submissions by payment method and outcome.
	BillsSubmittedTotal *prometheus.CounterVec
	// BillTotalAmount records the final amount of submitted bills.
	BillTotalAmount prometheus.Histogram
	// BillLineRejectionsTotal counts item entries refused by the bill engine.
	BillLineRejectionsTotal *prometheus.CounterVec
	// StockGateDecisionsTotal counts out-of-stock gate outcomes.
	StockGateDecisionsTotal *prometheus.CounterVec
	// BillSessionsActive tracks open bill-entry sessions.
	BillSessionsActive prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers billing collectors.
// Calling it more than once is a no-op.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_submitted_total",
			Help:      "Count of bill submissions by payment method and result.",
		}, []string{"payment_method", "result"})
		BillTotalAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_total_amount",
			Help:      "Distribution of submitted bill totals in currency units.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		})
		BillLineRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_line_rejections_total",
			Help:      "Count of rejected bill line entries by reason.",
		}, []string{"reason"})
		StockGateDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_gate_decisions_total",
			Help:      "Count of out-of-stock gate outcomes.",
		}, []string{"decision"})
		BillSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bill_sessions_active",
			Help:      "Number of open bill-entry sessions.",
		})

		mustRegisterCollector(reg, BillsSubmittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillsSubmittedTotal = v
			}
		})
		mustRegisterCollector(reg, BillTotalAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				BillTotalAmount = v
			}
		})
		mustRegisterCollector(reg, BillLineRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillLineRejectionsTotal = v
			}
		})
		mustRegisterCollector(reg, StockGateDecisionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StockGateDecisionsTotal = v
			}
		})
		mustRegisterCollector(reg, BillSessionsActive, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				BillSessionsActive = v
			}
		})
	})
}

// RecordLineRejection increments the rejection counter when metrics are registered.
func RecordLineRejection(reason string) {
	if BillLineRejectionsTotal != nil {
		BillLineRejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// RecordStockGate increments the gate counter when metrics are registered.
func RecordStockGate(decision string) {
	if StockGateDecisionsTotal != nil {
		StockGateDecisionsTotal.WithLabelValues(decision).Inc()
	}
}

// RecordSubmission records a submission outcome and, on success, its amount.
func RecordSubmission(method, result string, total float64) {
	if BillsSubmittedTotal != nil {
		BillsSubmittedTotal.WithLabelValues(method, result).Inc()
	}
	if result == "success" && BillTotalAmount != nil {
		BillTotalAmount.Observe(total)
	}
}

// SessionOpened and SessionClosed track the active session gauge.
func SessionOpened() {
	if BillSessionsActive != nil {
		BillSessionsActive.Inc()
	}
}

func SessionClosed() {
	if BillSessionsActive != nil {
		BillSessionsActive.Dec()
	}
}
