package interceptors

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "apiservice_client"

// MetricsInterceptor counts requests and observes their latency by method and status.
// Status is "error" when no response was received.
type MetricsInterceptor struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetricsInterceptor(reg prometheus.Registerer) *MetricsInterceptor {
	factory := promauto.With(reg)
	return &MetricsInterceptor{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Requests that completed the interceptor chain.",
			},
			[]string{"method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Time from the first interceptor to the response.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (m *MetricsInterceptor) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (m *MetricsInterceptor) AfterResponse(data InterceptorData) (InterceptorData, error) {
	status := "error"
	if data.Response != nil {
		status = strconv.Itoa(data.Response.StatusCode)
	}
	m.requests.WithLabelValues(data.Request.Method, status).Inc()
	m.duration.WithLabelValues(data.Request.Method).Observe(time.Since(data.StartedAt).Seconds())
	return data, nil
}
