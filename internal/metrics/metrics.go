package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	surveyEventsTotal   *prometheus.CounterVec
	paymentIntentsTotal *prometheus.CounterVec
	registerOnce        sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opinex",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the survey API.",
		}, []string{"method", "path", "status"})

		httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "opinex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"})

		surveyEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opinex",
			Name:      "survey_events_total",
			Help:      "Survey mutations processed by the event worker.",
		}, []string{"kind"})

		paymentIntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opinex",
			Name:      "payment_intents_total",
			Help:      "Payment intent creation attempts by result.",
		}, []string{"result"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func ObserveRequest(method, path string, d time.Duration) {
	if httpRequestDuration == nil {
		return
	}
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func IncSurveyEvent(kind string) {
	if surveyEventsTotal == nil {
		return
	}
	surveyEventsTotal.WithLabelValues(kind).Inc()
}

// IncPaymentIntent counts intents; result is "ok" or "error".
func IncPaymentIntent(result string) {
	if paymentIntentsTotal == nil {
		return
	}
	paymentIntentsTotal.WithLabelValues(result).Inc()
}
