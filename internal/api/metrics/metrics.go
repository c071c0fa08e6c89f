// Package metrics defines the custom Prometheus metrics of the health portal
// session service. Metrics register with the default registry on import via
// promauto; Register adds them to any other registry the router serves.
// Request-level HTTP metrics come from echoprometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/medihub/health-portal/internal/core/domain"
)

const namespace = "portal"

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "in_progress", "unresolved" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LoginDuration measures login latency including the simulated round trip.
var LoginDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "login_duration_seconds",
		Help:      "Duration of login calls from request to decision.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 1.5, 2, 5},
	},
	[]string{"result"},
)

// LogoutsTotal counts logout calls.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "logouts_total",
		Help:      "Total number of logout calls.",
	},
)

// Authenticated is 1 while an identity is current, 0 otherwise.
var Authenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "authenticated",
		Help:      "Whether the session gate currently holds an identity.",
	},
)

// RestoresTotal counts startup rehydration outcomes.
// Label:
//   - outcome: "restored", "empty", "discarded" or "failed"
var RestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "restores_total",
		Help:      "Startup rehydrations of the persisted identity, by outcome.",
	},
	[]string{"outcome"},
)

// Register adds the session collectors to reg. Collectors reg already holds
// are skipped, so passing the default registry is a no-op.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		LoginAttemptsTotal,
		LoginDuration,
		LogoutsTotal,
		Authenticated,
		RestoresTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRestore records a rehydration outcome and the resulting gauge value.
func ObserveRestore(outcome domain.RestoreOutcome, authenticated bool) {
	RestoresTotal.WithLabelValues(string(outcome)).Inc()
	SetAuthenticated(authenticated)
}

func SetAuthenticated(v bool) {
	if v {
		Authenticated.Set(1)
		return
	}
	Authenticated.Set(0)
}
