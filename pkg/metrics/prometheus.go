// Package metrics provides Prometheus metrics for the prsim service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default histogram buckets for latency metrics, in milliseconds.
var defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000}

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Simulation API client
	simulationSubmissions      prometheus.Counter
	simulationSubmissionErrors prometheus.Counter
	simulationPolls            prometheus.Counter
	simulationPollTimeouts     prometheus.Counter
	simulationLatency          prometheus.Histogram

	// Step engines
	stepResults     *prometheus.CounterVec
	unitsResolved   *prometheus.CounterVec
	jobsCompleted   prometheus.Counter
	jobsFailed      prometheus.Counter
	activeJobs      prometheus.Gauge
	headlineWinners prometheus.Counter

	// Campaign dispatch
	emailsSent        prometheus.Counter
	emailsFailed      prometheus.Counter
	dispatchQueueSize prometheus.Gauge
	dispatchQueueCap  prometheus.Gauge
	mailWorkers       prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager builds a Manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prsim",
		histogramBuckets: defaultLatencyBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.simulationSubmissions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "simulation_submissions_total",
		Help:      "Questions submitted to the population simulation API.",
	})
	m.simulationSubmissionErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "simulation_submission_errors_total",
		Help:      "Failed submission attempts (transient, retried by callers).",
	})
	m.simulationPolls = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "simulation_polls_total",
		Help:      "Status fetches against the simulation API.",
	})
	m.simulationPollTimeouts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "simulation_poll_timeouts_total",
		Help:      "Bounded polling windows that expired before a terminal status.",
	})
	m.simulationLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "simulation_request_duration_ms",
		Help:      "Latency of individual simulation API requests in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.stepResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "step_results_total",
		Help:      "Process-step outcomes by flow (release, headline) and result.",
	}, []string{"flow", "result"})
	m.unitsResolved = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "units_resolved_total",
		Help:      "Work units resolved with a final score, by flow.",
	}, []string{"flow"})
	m.jobsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "jobs_completed_total",
		Help:      "Scoring jobs that reached the done state.",
	})
	m.jobsFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "jobs_failed_total",
		Help:      "Scoring jobs that reached the failed state.",
	})
	m.activeJobs = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "active_jobs",
		Help:      "Jobs currently pending or running.",
	})
	m.headlineWinners = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "headline_tests_completed_total",
		Help:      "Headline preference tests that picked a winner.",
	})

	m.emailsSent = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "emails_sent_total",
		Help:      "Campaign emails delivered to the outbound gateway.",
	})
	m.emailsFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "emails_failed_total",
		Help:      "Campaign emails that failed to send.",
	})
	m.dispatchQueueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "dispatch_queue_size",
		Help:      "Recipients waiting in the dispatch queue.",
	})
	m.dispatchQueueCap = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "dispatch_queue_capacity",
		Help:      "Configured capacity of the dispatch queue.",
	})
	m.mailWorkers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "mail_workers",
		Help:      "Number of running email send workers.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	return m
}

// Registry exposes the manager's registry for scraping.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

func def() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry { return def().Registry() }

// Package-level recording helpers. These mirror the Manager fields so call
// sites stay one-liners.

func RecordSimulationSubmission()      { def().simulationSubmissions.Inc() }
func RecordSimulationSubmissionError() { def().simulationSubmissionErrors.Inc() }
func RecordSimulationPoll()            { def().simulationPolls.Inc() }
func RecordSimulationPollTimeout()     { def().simulationPollTimeouts.Inc() }
func RecordSimulationLatency(ms float64) {
	def().simulationLatency.Observe(ms)
}

func RecordStepResult(flow, result string) {
	def().stepResults.WithLabelValues(flow, result).Inc()
}

func RecordUnitResolved(flow string) {
	def().unitsResolved.WithLabelValues(flow).Inc()
}

func RecordJobCompleted()      { def().jobsCompleted.Inc() }
func RecordJobFailed()         { def().jobsFailed.Inc() }
func UpdateActiveJobs(n int)   { def().activeJobs.Set(float64(n)) }
func RecordHeadlineCompleted() { def().headlineWinners.Inc() }

func RecordEmailSent()   { def().emailsSent.Inc() }
func RecordEmailFailed() { def().emailsFailed.Inc() }
func UpdateDispatchQueueSize(n int) {
	def().dispatchQueueSize.Set(float64(n))
}
func UpdateDispatchQueueCapacity(n int) {
	def().dispatchQueueCap.Set(float64(n))
}
func UpdateMailWorkerCount(n int) { def().mailWorkers.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	def().httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	def().httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}
