package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Armesh26/audio-streamer/internal/audio"
	"github.com/Armesh26/audio-streamer/internal/metrics"
)

// FeederConfig contains tuning parameters for the capture feeder loop.
type FeederConfig struct {
	// ReadTimeout bounds a single capture source read.
	ReadTimeout time.Duration
	// IdlePollInterval is how often the loop re-checks for activation
	// while streaming is disabled.
	IdlePollInterval time.Duration
	// RetryBackoff is the pause after a hard capture read error.
	RetryBackoff time.Duration
	// ErrorLogEvery decimates hard-error logging; 0 disables the logs.
	ErrorLogEvery int
	// LevelLogEvery logs block peak/RMS levels every Nth block; 0 disables.
	LevelLogEvery int
}

// Feeder is the producer side of the pipeline. It runs for the process
// lifetime: while streaming is disabled it polls its activation flag at a
// coarse interval, and while active it copies capture blocks into the ring
// and releases them immediately.
type Feeder struct {
	source  Source
	ring    *audio.SampleRing
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     FeederConfig

	active atomic.Bool

	// Loop-local counters, read via Stats for monitoring.
	blocksRead  atomic.Uint64
	readErrors  atomic.Uint64
	samplesLost atomic.Uint64
}

// FeederStats is a snapshot of feeder counters for monitoring.
type FeederStats struct {
	BlocksRead  uint64 `json:"blocks_read"`
	ReadErrors  uint64 `json:"read_errors"`
	SamplesLost uint64 `json:"samples_evicted"`
}

// NewFeeder creates a capture feeder. It starts disabled; the stream
// controller toggles it via Activate and Deactivate.
func NewFeeder(source Source, ring *audio.SampleRing, logger *slog.Logger, m *metrics.Metrics, cfg FeederConfig) *Feeder {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = time.Second
	}
	if cfg.IdlePollInterval <= 0 {
		cfg.IdlePollInterval = 100 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 20 * time.Millisecond
	}
	return &Feeder{
		source:  source,
		ring:    ring,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
	}
}

// Activate switches the feeder into capture mode.
func (f *Feeder) Activate() {
	f.active.Store(true)
}

// Deactivate stops capture reads. The loop itself keeps running and polls for
// re-activation.
func (f *Feeder) Deactivate() {
	f.active.Store(false)
}

// Active reports whether the feeder is currently capturing.
func (f *Feeder) Active() bool {
	return f.active.Load()
}

// Stats returns a snapshot of feeder counters.
func (f *Feeder) Stats() FeederStats {
	return FeederStats{
		BlocksRead:  f.blocksRead.Load(),
		ReadErrors:  f.readErrors.Load(),
		SamplesLost: f.samplesLost.Load(),
	}
}

// Run executes the feeder loop until ctx is cancelled. Capture errors are
// never fatal: transient empty reads yield briefly, hard errors back off and
// retry.
func (f *Feeder) Run(ctx context.Context) error {
	f.logger.Info("Capture feeder started",
		slog.Duration("read_timeout", f.cfg.ReadTimeout),
		slog.Duration("idle_poll_interval", f.cfg.IdlePollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Capture feeder stopping",
				slog.Uint64("blocks_read", f.blocksRead.Load()),
				slog.Uint64("read_errors", f.readErrors.Load()),
			)
			return nil
		default:
		}

		if !f.active.Load() {
			sleepCtx(ctx, f.cfg.IdlePollInterval)
			continue
		}

		block, err := f.source.Read(f.cfg.ReadTimeout)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				// Transient: yield without logging.
				sleepCtx(ctx, time.Millisecond)
				continue
			}

			errCount := f.readErrors.Add(1)
			f.metrics.RecordCaptureError()
			if f.cfg.ErrorLogEvery > 0 && errCount%uint64(f.cfg.ErrorLogEvery) == 0 {
				f.logger.Error("Capture read failed",
					slog.String("error", err.Error()),
					slog.Uint64("total_errors", errCount),
				)
			}
			sleepCtx(ctx, f.cfg.RetryBackoff)
			continue
		}

		samples := block.Samples()
		peak, rms := audio.Levels(samples)

		evicted := f.ring.Push(samples)
		block.Release()

		blockCount := f.blocksRead.Add(1)
		f.metrics.RecordBlockCaptured(len(samples))
		f.metrics.SetRingUsed(f.ring.Used())

		if evicted > 0 {
			f.samplesLost.Add(uint64(evicted))
			f.metrics.RecordEvicted(evicted)
		}

		if f.cfg.LevelLogEvery > 0 && blockCount%uint64(f.cfg.LevelLogEvery) == 0 {
			f.logger.Debug("Capture block levels",
				slog.Uint64("block", blockCount),
				slog.Int("samples", len(samples)),
				slog.Int("peak", int(peak)),
				slog.Float64("rms", rms),
				slog.Int("ring_used", f.ring.Used()),
			)
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
