// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agencei_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agencei_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Scheduling
	EventsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agencei_events_scheduled_total",
			Help: "Total events scheduled",
		},
	)

	SchedulingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agencei_scheduling_rejections_total",
			Help: "Scheduling attempts refused, by reason",
		},
		[]string{"reason"},
	)

	TokenCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agencei_token_collisions_total",
			Help: "Attendance token collisions that forced a retry",
		},
	)

	// Registrations and attendance
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agencei_registrations_total",
			Help: "Registration attempts, by outcome",
		},
		[]string{"outcome"},
	)

	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agencei_checkins_total",
			Help: "Attendance confirmations, by outcome",
		},
		[]string{"outcome"},
	)

	AbsenteesMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agencei_absentees_marked_total",
			Help: "Registrations moved to absent",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agencei_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
