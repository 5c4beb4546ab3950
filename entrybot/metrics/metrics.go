package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks check-in outcomes, dashboard tokens, exports and store latency.
type Metrics struct {
	Checkins      *prometheus.CounterVec
	TokensIssued  prometheus.Counter
	TokensSwept   prometheus.Counter
	Exports       *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checkins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybot_checkins_total",
			Help: "Check-in attempts by outcome and source (bot or web)",
		}, []string{"outcome", "source"}),
		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "entrybot_dashboard_tokens_issued_total",
			Help: "Dashboard access tokens issued",
		}),
		TokensSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "entrybot_dashboard_tokens_swept_total",
			Help: "Expired dashboard tokens removed by the sweeper",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybot_exports_total",
			Help: "Visit exports by format",
		}, []string{"format"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entrybot_store_duration_seconds",
			Help:    "Duration of whole-collection store reads and writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"collection", "operation"}),
	}
}

// Noop returns metrics bound to a throwaway registry.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncCheckin(outcome, source string) {
	if m == nil {
		return
	}
	m.Checkins.WithLabelValues(outcome, source).Inc()
}

func (m *Metrics) IncTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

func (m *Metrics) AddTokensSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensSwept.Add(float64(n))
}

func (m *Metrics) IncExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// ObserveStore records a store round trip. Call with time.Now() at the start.
func (m *Metrics) ObserveStore(collection, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
}
