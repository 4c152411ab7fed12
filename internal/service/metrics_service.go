package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the scheduling engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationsTotal   *prometheus.CounterVec
	plansPlacedTotal   prometheus.Counter
	plansDockedTotal   prometheus.Counter
	generationDuration prometheus.Histogram
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

	generationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_generations_total",
		Help: "Total plan generation runs by outcome",
	}, []string{"outcome"})

	plansPlacedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plan_units_placed_total",
		Help: "Total content units placed into time slots",
	})

	plansDockedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plan_units_docked_total",
		Help: "Total content units sent to the dock",
	})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_generation_duration_seconds",
		Help:    "Duration of plan generation runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		generationsTotal,
		plansPlacedTotal,
		plansDockedTotal,
		generationDuration,
	)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationsTotal:   generationsTotal,
		plansPlacedTotal:   plansPlacedTotal,
		plansDockedTotal:   plansDockedTotal,
		generationDuration: generationDuration,
	}
}

// Handler exposes the /metrics endpoint handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// RecordHTTPRequest feeds the request middleware observations.
func (s *MetricsService) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveGeneration records the outcome of one generation run.
func (s *MetricsService) ObserveGeneration(outcome string, placedUnits, dockedUnits int, duration time.Duration) {
	s.generationsTotal.WithLabelValues(outcome).Inc()
	s.plansPlacedTotal.Add(float64(placedUnits))
	s.plansDockedTotal.Add(float64(dockedUnits))
	s.generationDuration.Observe(duration.Seconds())
}
