package rpc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"corelab/internal/events"
	"corelab/internal/registry"
	"corelab/pkg/coretypes"
)

const metricsNamespace = "corelab"

// builtinEvents are counted by Metrics. Custom events have no fixed key and
// are not counted.
var builtinEvents = []coretypes.EventType{
	coretypes.PersonCreated,
	coretypes.PersonUpdated,
	coretypes.ConversationCreated,
	coretypes.MemoryExtracted,
	coretypes.AIRequestCompleted,
}

// Metrics owns a private Prometheus registry so several servers can coexist
// in one process (and in tests).
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	commands     *prometheus.CounterVec
	events       *prometheus.CounterVec
}

// NewMetrics creates the collectors and gauges over bus and apps.
func NewMetrics(bus *events.Bus, apps *registry.Registry) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "commands",
				Name:      "executed_total",
				Help:      "Commands executed, by outcome kind (ok on success)",
			},
			[]string{"command", "kind"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Built-in events emitted on the bus",
			},
			[]string{"event"},
		),
	}

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.commands, m.events)
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "log_size",
			Help:      "Events held in the in-memory log",
		}, func() float64 { return float64(bus.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "apps",
			Name:      "registered",
			Help:      "Apps currently registered",
		}, func() float64 { return float64(len(apps.List())) }),
	)

	for _, t := range builtinEvents {
		key := t.Key()
		bus.Subscribe(key, func(coretypes.Event) {
			m.events.WithLabelValues(key).Inc()
		})
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) observeCommand(name string, kind coretypes.Kind) {
	label := string(kind)
	if label == "" {
		label = "ok"
	}
	m.commands.WithLabelValues(name, label).Inc()
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware instruments requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)

		path := routePatternOrPath(r)
		status := strconv.Itoa(sr.status)
		m.httpRequests.WithLabelValues(path, r.Method, status).Inc()
		m.httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}

// unmatchedRouteLabel is the path label for requests no route matched.
const unmatchedRouteLabel = "unmatched"

// routePatternOrPath returns the chi route pattern, or unmatchedRouteLabel
// when routing found none, so path labels stay bounded.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRouteLabel
}
