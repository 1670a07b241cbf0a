// Package metrics exports fan-out and probe results to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

const namespace = "ptz_console"

type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	cameraReachable  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Camera commands by outcome kind.",
		}, []string{"outcome"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from send to classified outcome per camera.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		cameraReachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "camera_reachable",
			Help:      "Last liveness verdict per camera (1 = reachable).",
		}, []string{"camera_id", "ip"}),
	}

	m.registry.MustRegister(
		m.dispatchTotal,
		m.dispatchDuration,
		m.cameraReachable,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) ObserveDispatch(outcome models.CommandOutcome, elapsed time.Duration) {
	m.dispatchTotal.WithLabelValues(string(outcome.Kind)).Inc()
	m.dispatchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLiveness(cam models.Camera, reachable bool) {
	v := 0.0
	if reachable {
		v = 1
	}
	m.cameraReachable.WithLabelValues(strconv.FormatInt(cam.ID, 10), cam.IP).Set(v)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
