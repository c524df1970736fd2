package metrics

import (
	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Recorder exports view model telemetry to Prometheus.
type Recorder struct {
	// Fetches that reached the apply step, by source and outcome.
	Fetches *prometheus.CounterVec

	// Failed fetches by source and failure kind.
	Failures *prometheus.CounterVec

	// Results that arrived after a newer fetch of the same source was issued.
	StaleDiscards *prometheus.CounterVec

	// Current view model status (see core.Status.Code).
	Status prometheus.Gauge
}

var _ core.Recorder = (*Recorder)(nil)

// NewRecorder registers the dashboard collectors on reg. A nil reg uses a
// private registry that nothing scrapes.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Recorder{
		Fetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_dashboard_fetches_total",
			Help: "Total number of applied fetch results.",
		}, []string{"source", "outcome"}),

		Failures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_dashboard_fetch_failures_total",
			Help: "Total number of failed fetches by failure kind.",
		}, []string{"source", "kind"}),

		StaleDiscards: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_dashboard_stale_discards_total",
			Help: "Total number of fetch results dropped because a newer fetch was issued.",
		}, []string{"source"}),

		Status: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fleet_dashboard_status",
			Help: "Current dashboard status (0=uninitialized, 1=loading, 2=ready, 3=refreshing, 4=error).",
		}),
	}
}

func (r *Recorder) FetchCompleted(source domain.FetchSource, err error) {
	if err != nil {
		r.Fetches.WithLabelValues(string(source), outcomeError).Inc()
		r.Failures.WithLabelValues(string(source), string(domain.ClassifyFailure(err))).Inc()
		return
	}
	r.Fetches.WithLabelValues(string(source), outcomeOK).Inc()
}

func (r *Recorder) StaleDiscarded(source domain.FetchSource) {
	r.StaleDiscards.WithLabelValues(string(source)).Inc()
}

func (r *Recorder) StatusChanged(status core.Status) {
	r.Status.Set(float64(status.Code()))
}
