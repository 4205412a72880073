// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinema_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinema_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SeatHolds counts select-seats attempts by result: ok, unavailable,
	// error.
	SeatHolds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinema_seat_holds_total",
			Help: "Seat hold attempts by result",
		},
		[]string{"result"},
	)

	Bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinema_bookings_total",
			Help: "Booking transitions by resulting status",
		},
		[]string{"status"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinema_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinema_sweep_expired_total",
			Help: "Bookings expired by the sweep",
		},
	)
)
