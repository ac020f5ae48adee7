package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/muurk/smartac/internal/sensibo"
)

// RequestMetrics counts API requests. It is a sensibo.RequestObserver.
type RequestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ sensibo.RequestObserver = (*RequestMetrics)(nil)

func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartac_api_requests_total",
			Help: "Sensibo API requests by method and status code (code=0 when no response was received)",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartac_api_request_duration_seconds",
			Help:    "Sensibo API request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		}, []string{"method"}),
	}
}

// ObserveRequest records one completed request.
func (m *RequestMetrics) ObserveRequest(method sensibo.Method, statusCode int, elapsed time.Duration) {
	m.requests.WithLabelValues(string(method), strconv.Itoa(statusCode)).Inc()
	m.duration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

func (m *RequestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requests.Describe(ch)
	m.duration.Describe(ch)
}

func (m *RequestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requests.Collect(ch)
	m.duration.Collect(ch)
}
