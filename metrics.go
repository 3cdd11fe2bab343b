package match

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "orderbook"

// MetricsPublishLog turns book logs into prometheus metrics.
// Attach it next to other sinks with NewMultiPublishLog.
type MetricsPublishLog struct {
	logs        *prometheus.CounterVec
	rejects     *prometheus.CounterVec
	matchedSize prometheus.Counter
	depth       *prometheus.GaugeVec
}

// NewMetricsPublishLog creates the collectors and registers them on reg when reg is not nil.
func NewMetricsPublishLog(reg prometheus.Registerer) *MetricsPublishLog {
	m := &MetricsPublishLog{
		logs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "book_logs_total",
			Help:      "Number of book logs published, by log type.",
		}, []string{"type"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejects_total",
			Help:      "Number of rejected orders, by reason.",
		}, []string{"reason"}),
		matchedSize: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "matched_size_total",
			Help:      "Total size matched.",
		}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "resting",
			Help:      "Resting price levels and orders, by side.",
		}, []string{"side", "kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.logs, m.rejects, m.matchedSize, m.depth)
	}

	return m
}

// Publish counts the logs. It keeps no reference to them.
func (m *MetricsPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		m.logs.WithLabelValues(string(log.Type)).Inc()

		switch log.Type {
		case LogTypeReject:
			m.rejects.WithLabelValues(string(log.RejectReason)).Inc()
		case LogTypeMatch:
			size, _ := log.Size.Float64()
			m.matchedSize.Add(size)
		}
	}
}

// ObserveStats records the current shape of the book.
func (m *MetricsPublishLog) ObserveStats(stats *BookStats) {
	m.depth.WithLabelValues("buy", "levels").Set(float64(stats.BidDepthCount))
	m.depth.WithLabelValues("buy", "orders").Set(float64(stats.BidOrderCount))
	m.depth.WithLabelValues("sell", "levels").Set(float64(stats.AskDepthCount))
	m.depth.WithLabelValues("sell", "orders").Set(float64(stats.AskOrderCount))
}
