package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/poseidon/poseidon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several apps (and tests) can live in
// one process. All methods are safe on a nil *Metrics.
type Metrics struct {
	registry           *prometheus.Registry
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	counterAdjustments *prometheus.CounterVec
	counterRepairs     *prometheus.CounterVec
	eventsTotal        *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agora_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		counterAdjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_counter_adjustments_total",
				Help: "Denormalized counter adjustments by counter and direction",
			},
			[]string{"counter", "direction"},
		),
		counterRepairs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_counter_repairs_total",
				Help: "Rows whose denormalized counter drifted and was recomputed",
			},
			[]string{"counter"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_events_total",
				Help: "Domain events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records every request under the route pattern that served it.
func (m *Metrics) Middleware() poseidon.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := agora.NewStatusRecorder(w)

			next.ServeHTTP(recorder, r)

			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.Status())).Inc()
			m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func (m *Metrics) CounterAdjusted(counter string, direction database.CounterDirection) {
	if m == nil {
		return
	}

	label := "increment"
	if direction == database.Decrement {
		label = "decrement"
	}

	m.counterAdjustments.WithLabelValues(counter, label).Inc()
}

func (m *Metrics) CounterRepaired(counter string, rows int) {
	if m == nil || rows == 0 {
		return
	}

	m.counterRepairs.WithLabelValues(counter).Add(float64(rows))
}

func (m *Metrics) EventHandled(kind string, err error) {
	if m == nil {
		return
	}

	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}

	m.eventsTotal.WithLabelValues(kind, outcome).Inc()
}
