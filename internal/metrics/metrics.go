package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmstack",
			Subsystem: "service",
			Name:      "probe_attempts_total",
			Help:      "Number of readiness probe invocations per service.",
		}, []string{"name"},
	)
	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmstack",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of start actions issued per service.",
		}, []string{"name"},
	)
	serviceOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmstack",
			Subsystem: "service",
			Name:      "outcomes_total",
			Help:      "Supervision outcomes per service and outcome kind.",
		}, []string{"name", "outcome"},
	)
	serviceReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llmstack",
			Subsystem: "service",
			Name:      "ready",
			Help:      "Last observed readiness per service (1 ready, 0 not).",
		}, []string{"name"},
	)
	readyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llmstack",
			Subsystem: "service",
			Name:      "ready_duration_seconds",
			Help:      "Time spent waiting for a service to become ready.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"},
	)
	chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmstack",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat completions requested, by model and result.",
		}, []string{"model", "result"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{probeAttempts, serviceStarts, serviceOutcomes, serviceReady, readyDuration, chatRequests}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

func IncProbeAttempt(name string)  { probeAttempts.WithLabelValues(name).Inc() }
func IncServiceStart(name string)  { serviceStarts.WithLabelValues(name).Inc() }
func IncOutcome(name, kind string) { serviceOutcomes.WithLabelValues(name, kind).Inc() }

func SetReady(name string, ready bool) {
	v := 0.0
	if ready {
		v = 1.0
	}
	serviceReady.WithLabelValues(name).Set(v)
}

func ObserveReadyDuration(name string, seconds float64) {
	readyDuration.WithLabelValues(name).Observe(seconds)
}

func IncChatRequest(model, result string) { chatRequests.WithLabelValues(model, result).Inc() }
