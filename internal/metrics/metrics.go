package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jafarshop/gopiorder/internal/domain"
)

const namespace = "gopiorder"

// Metrics holds the order flow collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	Submissions   *prometheus.CounterVec
	SubmitSeconds *prometheus.HistogramVec
	Sessions      prometheus.Gauge
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Finished order submission attempts by outcome.",
	}, []string{"outcome"})
	submitSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submission_duration_seconds",
		Help:      "Time from submit trigger to terminal state.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_open",
		Help:      "Order flow sessions currently mounted.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(requests, latency, submissions, submitSeconds, sessions)

	return &Metrics{
		registry:      reg,
		Requests:      requests,
		LatencyMS:     latency,
		Submissions:   submissions,
		SubmitSeconds: submitSeconds,
		Sessions:      sessions,
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SubmissionFinished counts one terminal attempt. Ignored triggers are not counted.
func (m *Metrics) SubmissionFinished(out domain.SubmissionOutcome, elapsed time.Duration) {
	if out.Ignored {
		return
	}
	outcome := "success"
	if !out.Success {
		outcome = string(out.Kind)
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmitSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// SessionsOpen sets the live session gauge
func (m *Metrics) SessionsOpen(n int) {
	m.Sessions.Set(float64(n))
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)
}
