// Package observability exposes Prometheus instruments for the board.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	Mutations       *prometheus.CounterVec
	TasksByStatus   *prometheus.GaugeVec
	RequestDuration *prometheus.HistogramVec
	WSClients       prometheus.Gauge
	WSDropped       prometheus.Counter
}

// NewMetrics registers the instruments on a fresh registry, so several
// servers (and tests) can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "board_mutations_total",
			Help:      "Board mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		TasksByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks",
			Help:      "Current number of tasks per lane.",
		}, []string{"status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds by route.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"method", "route", "code"}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket board clients.",
		}),
		WSDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_snapshots_dropped_total",
			Help:      "Snapshots dropped because a client queue was full.",
		}),
	}
}

// ObserveMutation counts one store operation.
func (m *Metrics) ObserveMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}

// ObserveTasks sets the per-lane gauges from a full task list.
func (m *Metrics) ObserveTasks(tasks []board.Task) {
	for _, lane := range board.GroupByLane(tasks) {
		m.TasksByStatus.WithLabelValues(string(lane.Status)).Set(float64(len(lane.Tasks)))
	}
}

func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(float64(d.Milliseconds()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
