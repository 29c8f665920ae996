package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Armesh26/audio-streamer/internal/audio"
	"github.com/Armesh26/audio-streamer/internal/capture"
	"github.com/Armesh26/audio-streamer/internal/config"
	"github.com/Armesh26/audio-streamer/internal/metrics"
	"github.com/Armesh26/audio-streamer/internal/server"
	"github.com/Armesh26/audio-streamer/internal/stream"
	"github.com/Armesh26/audio-streamer/internal/transmit"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-streamer"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load optional .env before reading configuration
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.String("capture_driver", cfg.Capture.Driver),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("ring_capacity", cfg.Audio.RingCapacity),
		slog.Int("frame_samples", cfg.Audio.FrameSamples),
		slog.Int("pacer_period_ms", cfg.Pacer.PeriodMS),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Build the audio pipeline
	ring := audio.NewSampleRing(cfg.Audio.RingCapacity)
	session := stream.NewSession()
	pool := capture.NewBlockPool(cfg.Capture.BlockCount, cfg.Capture.BlockSamples)

	source, err := newCaptureSource(pool, cfg)
	if err != nil {
		logger.Error("Failed to open capture source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Capture source opened",
		slog.String("driver", cfg.Capture.Driver),
		slog.Int("block_samples", cfg.Capture.BlockSamples),
		slog.Int("block_count", cfg.Capture.BlockCount),
	)

	feeder := capture.NewFeeder(source, ring, logger, appMetrics, capture.FeederConfig{
		ReadTimeout:      cfg.Capture.GetReadTimeout(),
		IdlePollInterval: cfg.Capture.GetIdlePollInterval(),
		RetryBackoff:     cfg.Capture.GetRetryBackoff(),
		ErrorLogEvery:    cfg.Capture.ErrorLogEvery,
		LevelLogEvery:    cfg.Capture.LevelLogEvery,
	})

	broadcaster := transmit.NewBroadcaster(time.Second)
	pacer := stream.NewPacer(ring, broadcaster, session, logger, appMetrics, stream.PacerConfig{
		Period:           cfg.Pacer.GetPeriod(),
		FrameSamples:     cfg.Audio.FrameSamples,
		ErrorLogEvery:    cfg.Pacer.ErrorLogEvery,
		ProgressLogEvery: cfg.Pacer.ProgressLogEvery,
	})

	controller := stream.NewController(session, ring, feeder, pacer, logger, appMetrics)
	logger.Info("Stream controller initialized",
		slog.Duration("frame_period", cfg.Pacer.GetPeriod()),
		slog.Duration("frame_duration", cfg.Audio.FrameDuration()),
	)

	// Initialize HTTP server (if enabled)
	var adminServer *server.AdminServer
	if cfg.HTTP.Enabled {
		adminServer = server.NewAdminServer(cfg.HTTP, logger, cfg, controller, feeder, ring, broadcaster, appMetrics)
		logger.Info("HTTP server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start the capture feeder loop
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feeder.Run(gctx)
	})

	// Start HTTP server (if enabled)
	if adminServer != nil {
		if err := adminServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-gctx.Done():
		logger.Info("Pipeline stopped, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Force streaming off so the pacer is disarmed before teardown
	controller.OnDisconnect()

	// Stop HTTP server (stop accepting new requests)
	if adminServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := adminServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop the feeder loop
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Capture feeder error", slog.String("error", err.Error()))
	}

	// Close the capture device
	if err := source.Close(); err != nil {
		logger.Error("Error closing capture source", slog.String("error", err.Error()))
	}

	// Get final statistics
	feederStats := feeder.Stats()
	sessionInfo := session.Snapshot()
	logger.Info("Final statistics",
		slog.Uint64("blocks_read", feederStats.BlocksRead),
		slog.Uint64("read_errors", feederStats.ReadErrors),
		slog.Uint64("samples_evicted", feederStats.SamplesLost),
		slog.Uint64("packets_sent", sessionInfo.PacketsSent),
		slog.Uint64("send_errors", sessionInfo.SendErrors),
		slog.Uint64("underruns", sessionInfo.Underruns),
	)

	logger.Info("Service stopped")
}

// newCaptureSource opens the configured capture driver.
func newCaptureSource(pool *capture.BlockPool, cfg *config.Config) (capture.Source, error) {
	switch cfg.Capture.Driver {
	case "portaudio":
		return capture.NewPortAudioSource(pool, capture.PortAudioConfig{
			SampleRate:   cfg.Audio.SampleRate,
			Channels:     cfg.Audio.Channels,
			BlockSamples: cfg.Capture.BlockSamples,
		})
	case "tone":
		return capture.NewToneSource(pool, capture.ToneConfig{
			SampleRate:   cfg.Audio.SampleRate,
			BlockSamples: cfg.Capture.BlockSamples,
			Frequency:    cfg.Capture.ToneFrequency,
			Amplitude:    0.5,
		}), nil
	default:
		return nil, fmt.Errorf("unknown capture driver %q", cfg.Capture.Driver)
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
