package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the server records. All collectors are
// registered on the registerer passed to New.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections prometheus.Gauge
	AssessmentsTotal      *prometheus.CounterVec
	RejectionsTotal       *prometheus.CounterVec
	ModelLoadsTotal       *prometheus.CounterVec
	ModelLoadDuration     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of in-flight HTTP requests",
			},
		),
		AssessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_assessments_total",
				Help: "Scored risk assessments by disease and risk level",
			},
			[]string{"disease", "level"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_assessment_rejections_total",
				Help: "Submissions rejected before prediction",
			},
			[]string{"disease", "reason"},
		),
		ModelLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_loads_total",
				Help: "Model artifact deserializations by result",
			},
			[]string{"disease", "result"}, // "success", "failure"
		),
		ModelLoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_load_duration_seconds",
				Help:    "Time spent deserializing model artifacts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"disease"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveConnections,
		m.AssessmentsTotal,
		m.RejectionsTotal,
		m.ModelLoadsTotal,
		m.ModelLoadDuration,
	)
	return m
}

func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func (m *Metrics) RecordAssessment(disease, level string) {
	m.AssessmentsTotal.WithLabelValues(disease, level).Inc()
}

func (m *Metrics) RecordRejection(disease, reason string) {
	m.RejectionsTotal.WithLabelValues(disease, reason).Inc()
}

// ObserveModelLoad matches model.Observer.
func (m *Metrics) ObserveModelLoad(disease string, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ModelLoadsTotal.WithLabelValues(disease, result).Inc()
	m.ModelLoadDuration.WithLabelValues(disease).Observe(took.Seconds())
}
