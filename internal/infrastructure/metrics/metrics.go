package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Generation lifecycle
	GenerationsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "generations_started_total",
			Help:      "Total assistant generations started",
		},
		[]string{"model"},
	)

	GenerationsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "generations_finished_total",
			Help:      "Total assistant generations finished by terminal status",
		},
		[]string{"model", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "generation_duration_seconds",
			Help:      "Assistant generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	// Search tool invocations inside the generation loop
	SearchToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "search_tool_invocations_total",
			Help:      "Total web search tool calls issued by models",
		},
		[]string{"model"},
	)

	// Active streaming connections gauge
	ActiveStreams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "active_streams",
			Help:      "Currently active streaming connections",
		},
		[]string{"model"},
	)

	// Sharing metrics
	SharesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "shares_total",
			Help:      "Share create/revoke attempts",
		},
		[]string{"action", "status"},
	)

	SharedThreadRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "shared_thread_requests_total",
			Help:      "Public shared thread fetch and fork requests",
		},
		[]string{"operation", "status"},
	)

	// Stale generation reaper
	StaleGenerationsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "t3",
			Subsystem: "chat_api",
			Name:      "stale_generations_cancelled_total",
			Help:      "Pending generations cancelled by the stale reaper",
		},
	)
)

// RecordRequest records an HTTP request with duration
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordShare records a share create/revoke attempt
func RecordShare(action, status string) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	SharesTotal.WithLabelValues(action, status).Inc()
}

// RecordSharedThreadRequest records a public shared thread read or fork
func RecordSharedThreadRequest(operation, status string) {
	SharedThreadRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordStaleCancellations records reaper-cancelled generations
func RecordStaleCancellations(count int) {
	StaleGenerationsCancelledTotal.Add(float64(count))
}

// GenerationRecorder feeds generation lifecycle signals into Prometheus.
type GenerationRecorder struct{}

func NewGenerationRecorder() *GenerationRecorder {
	return &GenerationRecorder{}
}

func (r *GenerationRecorder) GenerationStarted(model string) {
	GenerationsStartedTotal.WithLabelValues(model).Inc()
	ActiveStreams.WithLabelValues(model).Inc()
}

func (r *GenerationRecorder) GenerationFinished(model, status string, duration time.Duration) {
	GenerationsFinishedTotal.WithLabelValues(model, status).Inc()
	GenerationDuration.WithLabelValues(model, status).Observe(duration.Seconds())
	ActiveStreams.WithLabelValues(model).Dec()
}

func (r *GenerationRecorder) SearchToolInvoked(model string) {
	SearchToolInvocationsTotal.WithLabelValues(model).Inc()
}
