package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio streamer. All record
// helpers are safe to call on a nil receiver so pipeline components can run
// without metrics in tests.
type Metrics struct {
	// Capture metrics
	SamplesCaptured prometheus.Counter
	BlocksCaptured  prometheus.Counter
	CaptureErrors   prometheus.Counter

	// Ring metrics
	SamplesEvicted prometheus.Counter
	RingUsed       prometheus.Gauge

	// Transmit metrics
	FramesSent prometheus.Counter
	SendErrors prometheus.Counter
	Underruns  prometheus.Counter

	// Session metrics
	SubscriptionActive prometheus.Gauge
	SessionsStarted    prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Capture metrics
		SamplesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_samples_captured_total",
			Help: "Total number of PCM samples pulled from the capture source",
		}),
		BlocksCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_blocks_captured_total",
			Help: "Total number of capture blocks processed",
		}),
		CaptureErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_capture_errors_total",
			Help: "Total number of hard capture read errors",
		}),

		// Ring metrics
		SamplesEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_samples_evicted_total",
			Help: "Total number of samples evicted from the ring on overflow",
		}),
		RingUsed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mic_ring_used_samples",
			Help: "Current number of samples buffered in the ring",
		}),

		// Transmit metrics
		FramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_frames_sent_total",
			Help: "Total number of audio frames delivered to the transmit sink",
		}),
		SendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_send_errors_total",
			Help: "Total number of transmit sink failures",
		}),
		Underruns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_frame_underruns_total",
			Help: "Total number of pacer ticks skipped because a full frame was not available",
		}),

		// Session metrics
		SubscriptionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mic_subscription_active",
			Help: "Whether a peer subscription is currently active (0 or 1)",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mic_sessions_started_total",
			Help: "Total number of streaming sessions started",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mic_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mic_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mic_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordBlockCaptured records one processed capture block and its sample count
func (m *Metrics) RecordBlockCaptured(samples int) {
	if m == nil {
		return
	}
	m.BlocksCaptured.Inc()
	m.SamplesCaptured.Add(float64(samples))
}

// RecordCaptureError increments the capture errors counter
func (m *Metrics) RecordCaptureError() {
	if m == nil {
		return
	}
	m.CaptureErrors.Inc()
}

// RecordEvicted adds to the evicted samples counter
func (m *Metrics) RecordEvicted(samples int) {
	if m == nil || samples == 0 {
		return
	}
	m.SamplesEvicted.Add(float64(samples))
}

// SetRingUsed sets the current ring fill level
func (m *Metrics) SetRingUsed(samples int) {
	if m == nil {
		return
	}
	m.RingUsed.Set(float64(samples))
}

// RecordFrameSent increments the frames sent counter
func (m *Metrics) RecordFrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

// RecordSendError increments the send errors counter
func (m *Metrics) RecordSendError() {
	if m == nil {
		return
	}
	m.SendErrors.Inc()
}

// RecordUnderrun increments the underrun counter
func (m *Metrics) RecordUnderrun() {
	if m == nil {
		return
	}
	m.Underruns.Inc()
}

// SetSubscriptionActive sets the subscription gauge and counts session starts
func (m *Metrics) SetSubscriptionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.SubscriptionActive.Set(1)
		m.SessionsStarted.Inc()
	} else {
		m.SubscriptionActive.Set(0)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
