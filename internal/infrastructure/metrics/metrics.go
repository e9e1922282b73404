package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	printJobs       *prometheus.CounterVec
	printDuration   *prometheus.HistogramVec
	detected        *prometheus.GaugeVec
	queueMessages   *prometheus.CounterVec
	checkoutResults *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_pos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kitchen_pos_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		printJobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_pos_print_jobs_total",
				Help: "Print jobs by transport and outcome",
			},
			[]string{"transport", "outcome", "kind"},
		),
		printDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kitchen_pos_print_job_duration_seconds",
				Help:    "Time from job start to device close or surface handover",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"transport"},
		),
		detected: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kitchen_pos_detected_printers",
				Help: "Printers found by the last detection pass",
			},
			[]string{"kind"},
		),
		queueMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_pos_print_queue_messages_total",
				Help: "Print queue messages by result",
			},
			[]string{"result"},
		),
		checkoutResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_pos_checkouts_total",
				Help: "Checkouts by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	s := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, s).Inc()
	m.httpDuration.WithLabelValues(method, path, s).Observe(d.Seconds())
}

// ObservePrintJob records the outcome of one print job. kind is empty on success.
func (m *Metrics) ObservePrintJob(transport string, success bool, kind string, d time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.printJobs.WithLabelValues(transport, outcome, kind).Inc()
	m.printDuration.WithLabelValues(transport).Observe(d.Seconds())
}

// ObserveDetection records the result of a detection pass.
func (m *Metrics) ObserveDetection(usb, serial int) {
	m.detected.WithLabelValues("usb").Set(float64(usb))
	m.detected.WithLabelValues("serial").Set(float64(serial))
}

// ObserveQueueMessage records how a queue message was settled: ack, reject or requeue.
func (m *Metrics) ObserveQueueMessage(result string) {
	m.queueMessages.WithLabelValues(result).Inc()
}

// ObserveCheckout records a checkout result.
func (m *Metrics) ObserveCheckout(result string) {
	m.checkoutResults.WithLabelValues(result).Inc()
}
