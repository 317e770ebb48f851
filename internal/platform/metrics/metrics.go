package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid; every helper is a no-op on it so tests can pass nil.
type Metrics struct {
	CardsRead         prometheus.Counter
	CardsDeleted      prometheus.Counter
	CardsCloned       prometheus.Counter
	CloneFailures     prometheus.Counter
	CloneRejectedBusy prometheus.Counter
	AnalysesRun       *prometheus.CounterVec
	ProfilesEncoded   prometheus.Counter
	ExportsServed     *prometheus.CounterVec
	ImportsProcessed  prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CardsRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_cards_read_total",
			Help: "Total number of cards read from a reader",
		}),
		CardsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_cards_deleted_total",
			Help: "Total number of cards deleted (with cascade)",
		}),
		CardsCloned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_cards_cloned_total",
			Help: "Total number of successful clone operations",
		}),
		CloneFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_clone_failures_total",
			Help: "Total number of clone operations rolled back",
		}),
		CloneRejectedBusy: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_clone_rejected_busy_total",
			Help: "Total number of clone requests rejected because the source card was locked",
		}),
		AnalysesRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simguard_analyses_total",
			Help: "Total number of security analyses by resulting risk level",
		}, []string{"risk_level"}),
		ProfilesEncoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_esim_profiles_encoded_total",
			Help: "Total number of eSIM profiles encoded",
		}),
		ExportsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simguard_exports_total",
			Help: "Total number of exports served by format",
		}, []string{"format"}),
		ImportsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simguard_imports_total",
			Help: "Total number of import documents processed",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncrementCardsRead() {
	if m != nil {
		m.CardsRead.Inc()
	}
}

func (m *Metrics) IncrementCardsDeleted() {
	if m != nil {
		m.CardsDeleted.Inc()
	}
}

func (m *Metrics) IncrementCardsCloned() {
	if m != nil {
		m.CardsCloned.Inc()
	}
}

func (m *Metrics) IncrementCloneFailures() {
	if m != nil {
		m.CloneFailures.Inc()
	}
}

func (m *Metrics) IncrementCloneRejectedBusy() {
	if m != nil {
		m.CloneRejectedBusy.Inc()
	}
}

func (m *Metrics) IncrementAnalyses(riskLevel string) {
	if m != nil {
		m.AnalysesRun.WithLabelValues(riskLevel).Inc()
	}
}

func (m *Metrics) IncrementProfilesEncoded() {
	if m != nil {
		m.ProfilesEncoded.Inc()
	}
}

func (m *Metrics) IncrementExports(format string) {
	if m != nil {
		m.ExportsServed.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) IncrementImports() {
	if m != nil {
		m.ImportsProcessed.Inc()
	}
}

// ObserveRequest records one request latency sample.
func (m *Metrics) ObserveRequest(route, status string, duration time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(duration.Seconds())
	}
}
