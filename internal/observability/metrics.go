package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve outcomes recorded by the stylesheet middleware.
const (
	OutcomeServed     = "served"
	OutcomeRedirected = "redirected"
	OutcomeNotFound   = "not_found"
)

var (
	registerOnce sync.Once

	serveRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailbreeze",
			Subsystem: "serve",
			Name:      "requests_total",
			Help:      "Stylesheet requests by outcome.",
		},
		[]string{"outcome"},
	)
	installs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailbreeze",
			Subsystem: "install",
			Name:      "total",
			Help:      "Tailwind CLI downloads.",
		},
		[]string{"version", "success"},
	)
	installDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tailbreeze",
			Subsystem: "install",
			Name:      "duration_seconds",
			Help:      "Tailwind CLI download and verification time.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"version", "success"},
	)
	supervisorState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tailbreeze",
			Subsystem: "supervisor",
			Name:      "state",
			Help:      "1 for the supervisor's current state, 0 otherwise.",
		},
		[]string{"state"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(serveRequests, installs, installDuration, supervisorState)
	})
}

func RecordServe(outcome string) {
	RegisterMetrics()
	serveRequests.WithLabelValues(outcome).Inc()
}

func RecordInstall(version string, success bool, duration time.Duration) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	installs.WithLabelValues(version, successLabel).Inc()
	installDuration.WithLabelValues(version, successLabel).Observe(duration.Seconds())
}

// RecordState marks current as the active supervisor state among all.
func RecordState(current string, all []string) {
	RegisterMetrics()
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		supervisorState.WithLabelValues(s).Set(v)
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
