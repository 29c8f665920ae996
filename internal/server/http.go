package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Armesh26/audio-streamer/internal/audio"
	"github.com/Armesh26/audio-streamer/internal/capture"
	"github.com/Armesh26/audio-streamer/internal/config"
	"github.com/Armesh26/audio-streamer/internal/metrics"
	"github.com/Armesh26/audio-streamer/internal/stream"
	"github.com/Armesh26/audio-streamer/internal/transmit"
)

// AdminServer provides the HTTP surface of the service: the websocket stream
// endpoint that carries the audio subscription, plus monitoring and
// management endpoints.
type AdminServer struct {
	server      *http.Server
	logger      *slog.Logger
	config      *config.Config
	controller  *stream.Controller
	feeder      *capture.Feeder
	ring        *audio.SampleRing
	broadcaster *transmit.Broadcaster
	metrics     *metrics.Metrics
	upgrader    websocket.Upgrader

	startTime time.Time
}

// NewAdminServer creates the HTTP server with all routes configured.
func NewAdminServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, controller *stream.Controller, feeder *capture.Feeder,
	ring *audio.SampleRing, broadcaster *transmit.Broadcaster, m *metrics.Metrics) *AdminServer {

	s := &AdminServer{
		logger:      logger,
		config:      appConfig,
		controller:  controller,
		feeder:      feeder,
		ring:        ring,
		broadcaster: broadcaster,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupRoutes configures HTTP routes
func (s *AdminServer) setupRoutes(mux *http.ServeMux) {
	// Audio subscription endpoint; connecting enables streaming
	mux.HandleFunc("/stream", s.handleStream)

	// Health check endpoint
	mux.HandleFunc("/health", s.withMetrics("/health", s.handleHealth))

	// Streaming session status
	mux.HandleFunc("/status", s.withMetrics("/status", s.handleStatus))

	// Configuration endpoint
	mux.HandleFunc("/config", s.withMetrics("/config", s.handleConfig))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", s.withMetrics("/", s.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (s *AdminServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		// Call the original handler
		handler(ww, r)

		// Record metrics
		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		s.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		// Record error if status code indicates an error
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			s.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (s *AdminServer) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.server.Addr),
	)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *AdminServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server...")

	return s.server.Shutdown(ctx)
}

// handleStream implements the /stream websocket endpoint. A connected peer is
// the frame subscriber: the upgrade enables streaming, and closing the
// connection (or any read error) disables it. Only one subscriber is served
// at a time.
func (s *AdminServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.broadcaster.Attach(conn); err != nil {
		s.logger.Warn("Rejecting stream subscriber, one already attached",
			slog.String("remote", r.RemoteAddr),
		)
		conn.Close()
		return
	}

	s.logger.Info("Stream subscriber connected",
		slog.String("remote", r.RemoteAddr),
	)
	s.controller.OnSubscriptionChanged(true)

	// Read loop. The subscriber does not normally send anything; inbound
	// messages are logged and dropped. A read error means the peer is gone.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.logger.Debug("Inbound message from subscriber",
			slog.Int("bytes", len(data)),
		)
	}

	s.controller.OnDisconnect()
	s.broadcaster.Detach(conn)
	conn.Close()

	s.logger.Info("Stream subscriber disconnected",
		slog.String("remote", r.RemoteAddr),
	)
}

// handleHealth implements the /health endpoint
func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.startTime)
	feederStats := s.feeder.Stats()
	sessionInfo := s.controller.Status()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "audio-streamer",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"capture": map[string]interface{}{
				"active":          s.feeder.Active(),
				"blocks_read":     feederStats.BlocksRead,
				"read_errors":     feederStats.ReadErrors,
				"samples_evicted": feederStats.SamplesLost,
			},
			"stream": map[string]interface{}{
				"state":        sessionInfo.State,
				"subscriber":   s.broadcaster.Attached(),
				"packets_sent": sessionInfo.PacketsSent,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStatus implements the /status endpoint
func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionInfo := s.controller.Status()
	feederStats := s.feeder.Stats()

	status := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"session":   sessionInfo,
		"capture":   feederStats,
		"ring": map[string]interface{}{
			"used_samples": s.ring.Used(),
			"capacity":     s.ring.Capacity(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleConfig implements the /config endpoint
func (s *AdminServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"http": map[string]interface{}{
			"port":    s.config.HTTP.Port,
			"address": s.config.HTTP.Address,
			"enabled": s.config.HTTP.Enabled,
		},
		"audio": map[string]interface{}{
			"sample_rate":   s.config.Audio.SampleRate,
			"channels":      s.config.Audio.Channels,
			"bit_depth":     s.config.Audio.BitDepth,
			"ring_capacity": s.config.Audio.RingCapacity,
			"frame_samples": s.config.Audio.FrameSamples,
		},
		"capture": map[string]interface{}{
			"driver":                s.config.Capture.Driver,
			"block_samples":         s.config.Capture.BlockSamples,
			"block_count":           s.config.Capture.BlockCount,
			"read_timeout_ms":       s.config.Capture.ReadTimeoutMS,
			"idle_poll_interval_ms": s.config.Capture.IdlePollIntervalMS,
			"retry_backoff_ms":      s.config.Capture.RetryBackoffMS,
		},
		"pacer": map[string]interface{}{
			"period_ms":          s.config.Pacer.PeriodMS,
			"error_log_every":    s.config.Pacer.ErrorLogEvery,
			"progress_log_every": s.config.Pacer.ProgressLogEvery,
		},
		"logging": map[string]interface{}{
			"level":  s.config.Logging.Level,
			"format": s.config.Logging.Format,
			"output": s.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (s *AdminServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Audio Streaming Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /stream":  "Websocket audio subscription (binary PCM frames)",
			"GET /health":  "Service health check",
			"GET /status":  "Streaming session status",
			"GET /config":  "Get service configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
