package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type CDPMetrics struct {
	accrualRuns    *prometheus.CounterVec
	accrualSkipped *prometheus.CounterVec
	liquidations   *prometheus.CounterVec
	settlements    *prometheus.CounterVec
	shutdownStage  prometheus.Gauge
	refundsPaid    prometheus.Counter
}

var (
	cdpOnce     sync.Once
	cdpRegistry *CDPMetrics
)

func CDP() *CDPMetrics {
	cdpOnce.Do(func() {
		cdpRegistry = &CDPMetrics{
			accrualRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cdp_accrual_runs_total",
				Help: "Count of completed stability fee accruals per collateral.",
			}, []string{"collateral"}),
			accrualSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cdp_accrual_skipped_total",
				Help: "Count of per-block accruals skipped due to errors per collateral.",
			}, []string{"collateral"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cdp_liquidations_total",
				Help: "Count of liquidated positions per collateral and recovery route.",
			}, []string{"collateral", "route"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cdp_settlements_total",
				Help: "Count of positions settled after shutdown per collateral.",
			}, []string{"collateral"}),
			shutdownStage: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "cdp_shutdown_stage",
				Help: "Current shutdown stage: 0 running, 1 shutdown, 2 refunds open.",
			}),
			refundsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cdp_refunds_paid_total",
				Help: "Count of collateral refund claims paid out after shutdown.",
			}),
		}
		prometheus.MustRegister(
			cdpRegistry.accrualRuns,
			cdpRegistry.accrualSkipped,
			cdpRegistry.liquidations,
			cdpRegistry.settlements,
			cdpRegistry.shutdownStage,
			cdpRegistry.refundsPaid,
		)
	})
	return cdpRegistry
}

func (m *CDPMetrics) ObserveAccrual(collateral string) {
	if m == nil {
		return
	}
	if collateral == "" {
		collateral = "unknown"
	}
	m.accrualRuns.WithLabelValues(collateral).Inc()
}

func (m *CDPMetrics) ObserveAccrualSkipped(collateral string) {
	if m == nil {
		return
	}
	if collateral == "" {
		collateral = "unknown"
	}
	m.accrualSkipped.WithLabelValues(collateral).Inc()
}

func (m *CDPMetrics) ObserveLiquidation(collateral, route string) {
	if m == nil {
		return
	}
	if collateral == "" {
		collateral = "unknown"
	}
	if route == "" {
		route = "unknown"
	}
	m.liquidations.WithLabelValues(collateral, route).Inc()
}

func (m *CDPMetrics) ObserveSettlement(collateral string) {
	if m == nil {
		return
	}
	if collateral == "" {
		collateral = "unknown"
	}
	m.settlements.WithLabelValues(collateral).Inc()
}

func (m *CDPMetrics) SetShutdownStage(stage float64) {
	if m == nil {
		return
	}
	m.shutdownStage.Set(stage)
}

func (m *CDPMetrics) ObserveRefundPaid() {
	if m == nil {
		return
	}
	m.refundsPaid.Inc()
}
