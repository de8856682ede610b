package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	ApplicationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_applications_total",
			Help: "Total number of recorded applications by trigger.",
		},
		[]string{"trigger"},
	)
	CollaboratorFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_collaborator_failures_total",
			Help: "Best-effort collaborator calls that degraded to a default.",
		},
		[]string{"collaborator"},
	)
	ApplyStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "tracker_apply_step_duration_seconds",
			Help:       "Duration of each step of the apply lifecycle.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_automation_sweep_duration_seconds",
			Help:    "Duration of each automation sweep in seconds.",
			Buckets: []float64{1, 10, 60, 300, 900},
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(ApplicationsCounter)
		prometheus.MustRegister(CollaboratorFailuresCounter)
		prometheus.MustRegister(ApplyStepDuration)
		prometheus.MustRegister(SweepDuration)
	})
}

func StartMetricsServer(address string) {

	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(address, mux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
}
