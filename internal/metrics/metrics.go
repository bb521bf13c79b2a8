package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for a benchmark sweep.
type Metrics struct {
	ProjectsProcessed prometheus.Counter
	ConfigsDiscovered prometheus.Counter
	BuildsTotal       *prometheus.CounterVec
	BuildSeconds      *prometheus.HistogramVec
	InstallFailures   prometheus.Counter
	ProjectsInFlight  prometheus.Gauge
}

// New creates and registers the sweep metrics on its own registry, so
// repeated construction in tests never collides.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates the metrics and registers them on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProjectsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsbench_projects_processed_total",
			Help: "Number of corpus projects processed",
		}),
		ConfigsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsbench_configs_discovered_total",
			Help: "Number of tsconfig files located",
		}),
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tsbench_builds_total",
			Help: "Compiler invocations by build type and outcome",
		}, []string{"build_type", "outcome"}),
		BuildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tsbench_build_duration_seconds",
			Help:    "Wall-clock duration of compiler invocations",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"build_type"}),
		InstallFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsbench_install_failures_total",
			Help: "Dependency installs that failed after all fallbacks",
		}),
		ProjectsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tsbench_projects_in_flight",
			Help: "Projects currently being benchmarked (0 or 1)",
		}),
	}

	reg.MustRegister(
		m.ProjectsProcessed,
		m.ConfigsDiscovered,
		m.BuildsTotal,
		m.BuildSeconds,
		m.InstallFailures,
		m.ProjectsInFlight,
	)
	return m
}

// ObserveBuild records one compiler invocation.
func (m *Metrics) ObserveBuild(buildType string, exitCode int, wall time.Duration) {
	outcome := "ok"
	if exitCode != 0 {
		outcome = "error"
	}
	m.BuildsTotal.WithLabelValues(buildType, outcome).Inc()
	m.BuildSeconds.WithLabelValues(buildType).Observe(wall.Seconds())
}

// Serve exposes /metrics on the given port in a background goroutine.
// The server lives for the remainder of the process; sweeps are one-shot.
func Serve(port int, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
