package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Armesh26/audio-streamer/internal/audio"
	"github.com/Armesh26/audio-streamer/internal/metrics"
	"github.com/Armesh26/audio-streamer/internal/transmit"
)

// PacerConfig contains tuning parameters for the paced transmitter.
type PacerConfig struct {
	// Period is the transmit cadence.
	Period time.Duration
	// FrameSamples is the fixed frame size in samples.
	FrameSamples int
	// ErrorLogEvery decimates send-failure logging; 0 disables the logs.
	ErrorLogEvery int
	// ProgressLogEvery logs a progress line every Nth sent frame; 0
	// disables.
	ProgressLogEvery int
}

// Pacer drains exactly one frame's worth of samples from the ring on each
// tick and hands it to the transmit sink. It is a single-shot, self-rearming
// timer: the next tick is scheduled only after the current one completes, so
// ticks never overlap. A disarmed pacer does nothing and is not rearmed until
// the controller reactivates it.
type Pacer struct {
	ring    *audio.SampleRing
	sink    transmit.Sink
	session *Session
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     PacerConfig

	timer *time.Timer
	armed bool
	mu    sync.Mutex
}

// NewPacer creates a pacer. It starts disarmed.
func NewPacer(ring *audio.SampleRing, sink transmit.Sink, session *Session, logger *slog.Logger, m *metrics.Metrics, cfg PacerConfig) *Pacer {
	if cfg.Period <= 0 {
		cfg.Period = 10 * time.Millisecond
	}
	return &Pacer{
		ring:    ring,
		sink:    sink,
		session: session,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
	}
}

// Arm schedules the first tick one period from now. Arming an armed pacer is
// a no-op.
func (p *Pacer) Arm() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.armed {
		return
	}
	p.armed = true
	p.timer = time.AfterFunc(p.cfg.Period, p.tick)
}

// Disarm cancels the pending tick. It holds the pacer mutex, so once Disarm
// returns no tick is running and none will fire until the next Arm.
func (p *Pacer) Disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.armed {
		return
	}
	p.armed = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Armed reports whether the pacer is currently scheduled.
func (p *Pacer) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

func (p *Pacer) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A tick that fired while Disarm was waiting for the mutex lands here
	// after the disarm and must not run.
	if !p.armed {
		return
	}

	p.runOnce()
	p.timer = time.AfterFunc(p.cfg.Period, p.tick)
}

// runOnce performs the work of one tick. Callers other than tick exist only
// in tests.
func (p *Pacer) runOnce() {
	samples := p.ring.Pop(p.cfg.FrameSamples)
	p.metrics.SetRingUsed(p.ring.Used())

	if len(samples) < p.cfg.FrameSamples {
		// Underrun: the producer fell behind. Never send a short frame;
		// skip this tick.
		p.session.recordUnderrun()
		p.metrics.RecordUnderrun()
		return
	}

	frame := audio.EncodeFrame(samples)

	if err := p.sink.Send(frame); err != nil {
		errCount := p.session.recordSendError()
		p.metrics.RecordSendError()
		if p.cfg.ErrorLogEvery > 0 && errCount%uint64(p.cfg.ErrorLogEvery) == 0 {
			p.logger.Warn("Frame send failed",
				slog.String("error", err.Error()),
				slog.Uint64("total_errors", errCount),
			)
		}
		return
	}

	sent := p.session.recordSent()
	p.metrics.RecordFrameSent()

	if p.cfg.ProgressLogEvery > 0 && sent%uint64(p.cfg.ProgressLogEvery) == 0 {
		info := p.session.Snapshot()
		p.logger.Info("Streaming progress",
			slog.Uint64("packets_sent", info.PacketsSent),
			slog.Uint64("send_errors", info.SendErrors),
			slog.Uint64("underruns", info.Underruns),
			slog.Float64("success_rate_percent", info.SuccessRate),
		)
	}
}
