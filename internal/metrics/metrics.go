// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the middleware and services record against.
type Recorder interface {
	RecordRequest(method, route string, statusCode int, duration time.Duration)
	RecordGateRejection(surface string)
	RecordClassifierFallback(reason string)
	RecordClassifierLatency(duration time.Duration)
	RecordProfileWrite(section string)
}

// Collector is the prometheus-backed Recorder.
type Collector struct {
	requests            *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
	gateRejections      *prometheus.CounterVec
	classifierFallbacks *prometheus.CounterVec
	classifierLatency   prometheus.Histogram
	profileWrites       *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchpoint_requests_total",
			Help: "API requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchpoint_request_duration_seconds",
			Help:    "API request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchpoint_gate_rejections_total",
			Help: "Writes rejected by the pause gate, by surface.",
		}, []string{"surface"}),
		classifierFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchpoint_classifier_fallbacks_total",
			Help: "Classifier calls that fell back to the default result, by reason.",
		}, []string{"reason"}),
		classifierLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchpoint_classifier_duration_seconds",
			Help:    "Upstream classifier call latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		profileWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchpoint_profile_writes_total",
			Help: "Accepted profile-data writes by section.",
		}, []string{"section"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.gateRejections,
		c.classifierFallbacks,
		c.classifierLatency,
		c.profileWrites,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordGateRejection(surface string) {
	if surface == "" {
		surface = "global"
	}
	c.gateRejections.WithLabelValues(surface).Inc()
}

func (c *Collector) RecordClassifierFallback(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	c.classifierFallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordClassifierLatency(duration time.Duration) {
	c.classifierLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordProfileWrite(section string) {
	c.profileWrites.WithLabelValues(section).Inc()
}

// Handler returns the scrape handler for the registry backing the collector.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopRecorder discards every observation. Used in tests.
type NopRecorder struct{}

func (NopRecorder) RecordRequest(string, string, int, time.Duration) {}
func (NopRecorder) RecordGateRejection(string)                      {}
func (NopRecorder) RecordClassifierFallback(string)                 {}
func (NopRecorder) RecordClassifierLatency(time.Duration)           {}
func (NopRecorder) RecordProfileWrite(string)                       {}
