package sla

import (
	"time"

	"github.com/claimsdesk/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the SLA sweep results.
type Metrics struct {
	openStages    *prometheus.GaugeVec
	breaches      *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		openStages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "claims_open_stages",
				Help: "Open claim stages by status and SLA indicator.",
			},
			[]string{"status", "indicator"},
		),
		breaches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claims_sla_breaches_total",
				Help: "Claim stages that crossed their business-day limit.",
			},
			[]string{"status"},
		),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "claims_sla_sweep_duration_seconds",
			Help:    "Duration of SLA sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.openStages, m.breaches, m.sweepDuration)
	return m
}

// Tally counts open stages per status and indicator.
type Tally map[models.ClaimStatus]map[Indicator]int

func (t Tally) Add(r StageRecord) {
	if t[r.Status] == nil {
		t[r.Status] = map[Indicator]int{}
	}
	t[r.Status][r.Indicator]++
}

// SetOpen replaces the open-stage gauges with t. Every limited status gets all
// three indicator series so that stale values drop to zero.
func (m *Metrics) SetOpen(t Tally, limits Limits) {
	m.openStages.Reset()
	for st := range limits {
		for _, ind := range []Indicator{OnTime, AtRisk, Breached} {
			m.openStages.WithLabelValues(string(st), string(ind)).Set(float64(t[st][ind]))
		}
	}
}

func (m *Metrics) Breach(status models.ClaimStatus) {
	m.breaches.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	m.sweepDuration.Observe(d.Seconds())
}
