package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the booking pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	bookingsCreated   prometheus.Counter
	bookingConflicts  *prometheus.CounterVec
	bookingsCancelled prometheus.Counter
	bookingsCompleted prometheus.Counter
	reviewsCreated    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total bookings admitted as CONFIRMED",
	})

	bookingConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking creations rejected by the admission checks",
	}, []string{"reason"})

	bookingsCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total bookings transitioned to CANCELLED",
	})

	bookingsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_completed_total",
		Help: "Total bookings transitioned to COMPLETED",
	})

	reviewsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total reviews attached to completed bookings",
	})

	registry.MustRegister(requestDuration, requestTotal, bookingsCreated, bookingConflicts, bookingsCancelled, bookingsCompleted, reviewsCreated)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		bookingsCreated:   bookingsCreated,
		bookingConflicts:  bookingConflicts,
		bookingsCancelled: bookingsCancelled,
		bookingsCompleted: bookingsCompleted,
		reviewsCreated:    reviewsCreated,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records latency and count for one request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// BookingCreated counts one admitted booking.
func (s *MetricsService) BookingCreated() {
	if s == nil {
		return
	}
	s.bookingsCreated.Inc()
}

// BookingConflict counts one rejected admission with its reason.
func (s *MetricsService) BookingConflict(reason string) {
	if s == nil {
		return
	}
	s.bookingConflicts.WithLabelValues(reason).Inc()
}

// BookingCancelled counts one cancellation.
func (s *MetricsService) BookingCancelled() {
	if s == nil {
		return
	}
	s.bookingsCancelled.Inc()
}

// BookingCompleted counts one completion.
func (s *MetricsService) BookingCompleted() {
	if s == nil {
		return
	}
	s.bookingsCompleted.Inc()
}

// ReviewCreated counts one stored review.
func (s *MetricsService) ReviewCreated() {
	if s == nil {
		return
	}
	s.reviewsCreated.Inc()
}
