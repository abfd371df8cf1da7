// Package metrics exposes the prometheus collectors of the API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/skillfolio/core"
)

const namespace = "skillfolio"

// Events counted by Subscribe.
var countedEvents = []string{
	core.EventLessonCompleted,
	core.EventQuizPassed,
	core.EventCourseCompleted,
	core.EventSubtopicCompleted,
	core.EventGoalCompleted,
	core.EventThreadCreated,
	core.EventPostCreated,
	core.EventBadgeAwarded,
	core.EventLevelUp,
}

type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
	sockets  prometheus.Gauge
}

// New returns collectors registered on their own registry, with the go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Domain events delivered, by type.",
		}, []string{"type"}),
		sockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "websockets_open",
			Help:      "Open notification websockets.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.events, m.sockets,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SocketOpened and SocketClosed track the notification websockets.
func (m *Metrics) SocketOpened() { m.sockets.Inc() }
func (m *Metrics) SocketClosed() { m.sockets.Dec() }

// Subscribe counts the domain events.
func (m *Metrics) Subscribe(sub core.EventSubscriber) {
	for _, typ := range countedEvents {
		counter := m.events.WithLabelValues(typ)
		sub.Subscribe("metrics."+typ, typ, func(context.Context, core.Event) error {
			counter.Inc()
			return nil
		})
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
