package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the engine's Prometheus instruments behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	SchedulerTicks    *prometheus.CounterVec
	SchedulerOverlaps *prometheus.CounterVec
	RecordsProcessed  *prometheus.CounterVec
	RecordsFailed     *prometheus.CounterVec
	EventsPublished   prometheus.Counter
	Subscribers       prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statengine_cache_hits_total",
			Help: "Cache lookups served from the tiered store.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statengine_cache_misses_total",
			Help: "Cache lookups that fell through to durable storage.",
		}),
		SchedulerTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statengine_scheduler_ticks_total",
			Help: "Completed scheduler ticks per lifecycle tier.",
		}, []string{"tier"}),
		SchedulerOverlaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statengine_scheduler_overlaps_total",
			Help: "Ticks skipped because the previous tick for the tier was still running.",
		}, []string{"tier"}),
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statengine_records_processed_total",
			Help: "Raw records normalized and computed, per sport.",
		}, []string{"sport"}),
		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statengine_records_failed_total",
			Help: "Records whose persistence failed after retries, per sport.",
		}, []string{"sport"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statengine_events_published_total",
			Help: "Update events published to subscription channels.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statengine_subscribers",
			Help: "Currently connected WebSocket subscribers.",
		}),
	}

	registry.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.SchedulerTicks,
		m.SchedulerOverlaps,
		m.RecordsProcessed,
		m.RecordsFailed,
		m.EventsPublished,
		m.Subscribers,
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
