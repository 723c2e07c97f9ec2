package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the domain counters exported on /metrics
type Recorder struct {
	registry *prometheus.Registry

	Applications  *prometheus.CounterVec
	Completions   prometheus.Counter
	Transitions   *prometheus.CounterVec
	Ratings       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// New registers the counters on a fresh registry together with the Go and process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		Applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "applications_total",
			Help:      "Event applications by outcome.",
		}, []string{"outcome"}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "event_completions_total",
			Help:      "Events moved to COMPLETED.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "event_transitions_total",
			Help:      "Event lifecycle transitions by target status.",
		}, []string{"to"}),
		Ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "ratings_total",
			Help:      "Ratings submitted by direction.",
		}, []string{"direction"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "cache_lookups_total",
			Help:      "Aggregate cache lookups by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volunnet",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "volunnet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Applications, r.Completions, r.Transitions, r.Ratings,
		r.Notifications, r.CacheLookups, r.HTTPRequests, r.HTTPDuration,
	)
	return r
}

// Registry exposes the registry for the /metrics handler
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeFull     = "full"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheStale      = "stale"
)
