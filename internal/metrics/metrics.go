package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quran_quiz"

// Cache lookup outcomes.
const (
	CacheHit           = "hit"
	CacheMiss          = "miss"
	CacheNetworkError  = "network_error"
	CacheFallbackShell = "fallback_shell"
	CacheFallback503   = "fallback_503"
)

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	CacheRequests    *prometheus.CounterVec
	CacheEvictions   prometheus.Counter
	QuizSessions     prometheus.Counter
	QuizAnswers      *prometheus.CounterVec
	QuizFetchErrors  prometheus.Counter
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New creates a new metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "offline",
				Name:      "requests_total",
				Help:      "Requests intercepted by the offline cache controller by outcome",
			},
			[]string{"result"},
		),
		CacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "offline",
				Name:      "stale_stores_deleted_total",
				Help:      "Cache stores deleted on activation",
			},
		),
		QuizSessions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "sessions_started_total",
				Help:      "Quiz sessions started",
			},
		),
		QuizAnswers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "answers_total",
				Help:      "Scored answers by mode and correctness",
			},
			[]string{"mode", "correct"},
		),
		QuizFetchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "fetch_errors_total",
				Help:      "Failed verse or audio fetches while advancing",
			},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
	}
}

// NewNop returns metrics registered on a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
