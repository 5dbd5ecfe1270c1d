package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 回测与实盘运行指标
type Collector struct {
	OrdersTotal   *prometheus.CounterVec
	TradesTotal   *prometheus.CounterVec
	RejectedTotal *prometheus.CounterVec
	Progress      *prometheus.GaugeVec
	TotalProfit   *prometheus.GaugeVec
	DayDuration   prometheus.Histogram
	EventsHandled prometheus.Counter
}

// NewCollector 创建并注册指标
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		OrdersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pandaquant",
			Name:      "orders_total",
			Help:      "累计报单数",
		}, []string{"run_id", "class"}),

		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pandaquant",
			Name:      "trades_total",
			Help:      "累计成交数",
		}, []string{"run_id", "class"}),

		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pandaquant",
			Name:      "orders_rejected_total",
			Help:      "累计拒单撤单数",
		}, []string{"run_id", "class"}),

		Progress: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pandaquant",
			Name:      "backtest_progress",
			Help:      "回测进度（0~1）",
		}, []string{"run_id"}),

		TotalProfit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pandaquant",
			Name:      "total_profit",
			Help:      "组合总资金",
		}, []string{"run_id"}),

		DayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pandaquant",
			Name:      "trade_date_duration_seconds",
			Help:      "单交易日推进耗时",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),

		EventsHandled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pandaquant",
			Name:      "events_handled_total",
			Help:      "事件总线处理事件数",
		}),
	}
}

var className = map[int]string{0: "stock", 1: "future", 2: "fund"}

// ClassName 资产类别标签值
func ClassName(class int) string {
	if n, ok := className[class]; ok {
		return n
	}
	return "unknown"
}
