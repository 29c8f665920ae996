package stream

import (
	"log/slog"
	"sync"

	"github.com/Armesh26/audio-streamer/internal/audio"
	"github.com/Armesh26/audio-streamer/internal/metrics"
)

// FeederControl is the subset of the capture feeder the controller drives.
type FeederControl interface {
	Activate()
	Deactivate()
}

// Controller is the state machine coordinating subscription state, ring
// reset, and the capture feeder and pacer lifecycles. Its event entry points
// are invoked by the host environment; it never touches sample data itself.
type Controller struct {
	session *Session
	ring    *audio.SampleRing
	feeder  FeederControl
	pacer   *Pacer
	logger  *slog.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// NewController creates a controller over an initially disabled session.
func NewController(session *Session, ring *audio.SampleRing, feeder FeederControl, pacer *Pacer, logger *slog.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		session: session,
		ring:    ring,
		feeder:  feeder,
		pacer:   pacer,
		logger:  logger,
		metrics: m,
	}
}

// OnSubscriptionChanged is the inbound entry point for the peer's
// subscription flag.
func (c *Controller) OnSubscriptionChanged(enabled bool) {
	if enabled {
		c.enable()
	} else {
		c.disable("subscription disabled")
	}
}

// OnDisconnect forces streaming off regardless of the prior subscription
// flag. Connection loss is an implicit unsubscribe.
func (c *Controller) OnDisconnect() {
	c.disable("peer disconnected")
}

// Status returns a snapshot of the session for monitoring.
func (c *Controller) Status() SessionInfo {
	return c.session.Snapshot()
}

func (c *Controller) enable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State() == StateActive {
		// Idempotent: counters untouched.
		c.logger.Warn("Streaming already active")
		return
	}

	// Order matters: the ring must look empty before the pacer can fire.
	c.ring.Reset()
	c.session.activate()
	c.feeder.Activate()
	c.pacer.Arm()

	c.metrics.SetSubscriptionActive(true)
	c.metrics.SetRingUsed(0)

	c.logger.Info("Streaming started",
		slog.Duration("frame_period", c.pacer.cfg.Period),
		slog.Int("frame_samples", c.pacer.cfg.FrameSamples),
	)
}

func (c *Controller) disable(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State() == StateDisabled {
		c.logger.Warn("Streaming already stopped")
		return
	}

	// Disarm before touching anything else; after this returns no stale
	// tick can run against the pipeline. Ring contents are left as-is:
	// stale samples are simply never read.
	c.pacer.Disarm()
	c.feeder.Deactivate()
	c.session.deactivate()

	c.metrics.SetSubscriptionActive(false)

	info := c.session.Snapshot()
	c.logger.Info("Streaming stopped",
		slog.String("reason", reason),
		slog.Uint64("packets_sent", info.PacketsSent),
		slog.Uint64("send_errors", info.SendErrors),
		slog.Uint64("underruns", info.Underruns),
		slog.Float64("success_rate_percent", info.SuccessRate),
	)
}
