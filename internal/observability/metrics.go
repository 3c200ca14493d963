package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chunk kinds for the emitted chunk counter
const (
	ChunkWarmup   = "warmup"
	ChunkClear    = "clear"
	ChunkRedacted = "redacted"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redaction_gateway_active_sessions",
		Help: "Number of active streaming sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redaction_gateway_sessions_total",
		Help: "Total number of sessions processed",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "redaction_gateway_session_duration_seconds",
		Help:    "Duration of streaming sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
	})

	// Pipeline metrics
	chunksEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_chunks_emitted_total",
		Help: "Total number of chunks released to clients",
	}, []string{"kind"}) // kind: "warmup", "clear" or "redacted"

	redactedSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redaction_gateway_redacted_seconds_total",
		Help: "Total seconds of audio replaced by the masking tone",
	})

	findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_findings_total",
		Help: "Total number of sensitive spans detected",
	}, []string{"label"})

	alignmentMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redaction_gateway_alignment_misses_total",
		Help: "Findings that could not be mapped onto transcript words",
	})

	// Transcription metrics
	transcribeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_transcribe_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"backend", "status"})

	transcribeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redaction_gateway_transcribe_latency_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"backend"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redaction_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redaction_gateway_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks metrics for a single session. A session is driven by one
// goroutine, so no locking is needed.
type Metrics struct {
	sessionID string
	startTime time.Time
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordChunk records one released chunk of the given kind
func (m *Metrics) RecordChunk(kind string) {
	chunksEmitted.WithLabelValues(kind).Inc()
}

// RecordRedactedSeconds records tone-masked audio
func (m *Metrics) RecordRedactedSeconds(seconds float64) {
	if seconds > 0 {
		redactedSeconds.Add(seconds)
	}
}

// RecordFinding records one detection
func (m *Metrics) RecordFinding(label string) {
	findingsTotal.WithLabelValues(label).Inc()
}

// RecordAlignmentMiss records a finding that matched no word
func (m *Metrics) RecordAlignmentMiss() {
	alignmentMisses.Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordTranscription records a transcription call against a backend
func RecordTranscription(backend string, latency time.Duration, success bool) {
	transcribeLatency.WithLabelValues(backend).Observe(latency.Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	transcribeRequests.WithLabelValues(backend, status).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
