package insertabove

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by an engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	deposits       prometheus.Counter
	containerItems *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRendersTotal,
				Help:      "Total number of template renders",
			},
			[]string{MetricLabelStatus},
		),
		renderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRenderDuration,
				Help:      "Duration of template renders",
				Buckets:   prometheus.DefBuckets,
			},
		),
		deposits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricDepositsTotal,
				Help:      "Total number of fragments deposited into buckets",
			},
		),
		containerItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricContainerItemsTotal,
				Help:      "Total number of items emitted by output containers",
			},
			[]string{MetricLabelKind},
		),
	}

	for _, c := range []prometheus.Collector{m.renders, m.renderDuration, m.deposits, m.containerItems} {
		if err := reg.Register(c); err != nil {
			return nil, NewConfigError(OptionMetrics, err)
		}
	}
	return m, nil
}

func (m *Metrics) observeRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := MetricStatusOK
	if err != nil {
		status = MetricStatusError
	}
	m.renders.WithLabelValues(status).Inc()
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) observeDeposit() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

func (m *Metrics) observeContainer(kind string, items int) {
	if m == nil {
		return
	}
	m.containerItems.WithLabelValues(kind).Add(float64(items))
}
