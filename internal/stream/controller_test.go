package stream

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Armesh26/audio-streamer/internal/audio"
)

// fakeFeeder records activation toggles.
type fakeFeeder struct {
	activations   atomic.Int32
	deactivations atomic.Int32
}

func (f *fakeFeeder) Activate()   { f.activations.Add(1) }
func (f *fakeFeeder) Deactivate() { f.deactivations.Add(1) }

func newTestController(t *testing.T) (*Controller, *audio.SampleRing, *Session, *fakeFeeder, *fakeSink) {
	t.Helper()

	ring := audio.NewSampleRing(512)
	sink := &fakeSink{}
	session := NewSession()
	feeder := &fakeFeeder{}
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: time.Hour, FrameSamples: 4})
	ctrl := NewController(session, ring, feeder, pacer, testLogger(), nil)

	return ctrl, ring, session, feeder, sink
}

func TestEnableStartsPipeline(t *testing.T) {
	ctrl, _, session, feeder, _ := newTestController(t)

	ctrl.OnSubscriptionChanged(true)

	if session.State() != StateActive {
		t.Errorf("Expected state active, got %s", session.State())
	}
	if feeder.activations.Load() != 1 {
		t.Errorf("Expected 1 feeder activation, got %d", feeder.activations.Load())
	}
	if !ctrl.pacer.Armed() {
		t.Error("Expected pacer to be armed")
	}
}

func TestEnableResetsRingAndCounters(t *testing.T) {
	ctrl, ring, session, _, _ := newTestController(t)

	// Leave stale state behind from a previous run.
	ring.Push([]int16{9, 9, 9})
	session.packetsSent = 42
	session.sendErrors = 7
	session.underruns = 3

	ctrl.OnSubscriptionChanged(true)

	if ring.Used() != 0 {
		t.Errorf("Expected logically empty ring after enable, got %d used samples", ring.Used())
	}

	info := session.Snapshot()
	if info.PacketsSent != 0 || info.SendErrors != 0 || info.Underruns != 0 {
		t.Errorf("Expected counters reset, got %+v", info)
	}
}

func TestEnableIdempotent(t *testing.T) {
	ctrl, _, session, feeder, _ := newTestController(t)

	ctrl.OnSubscriptionChanged(true)
	session.packetsSent = 5

	// Re-entering active must be a no-op: counters untouched, no second
	// activation.
	ctrl.OnSubscriptionChanged(true)

	if got := session.Snapshot().PacketsSent; got != 5 {
		t.Errorf("Expected counters untouched by repeated enable, got packets_sent=%d", got)
	}
	if feeder.activations.Load() != 1 {
		t.Errorf("Expected 1 feeder activation, got %d", feeder.activations.Load())
	}
}

func TestDisableStopsPipeline(t *testing.T) {
	ctrl, ring, session, feeder, _ := newTestController(t)

	ctrl.OnSubscriptionChanged(true)
	ring.Push([]int16{1, 2, 3})

	ctrl.OnSubscriptionChanged(false)

	if session.State() != StateDisabled {
		t.Errorf("Expected state disabled, got %s", session.State())
	}
	if feeder.deactivations.Load() != 1 {
		t.Errorf("Expected 1 feeder deactivation, got %d", feeder.deactivations.Load())
	}
	if ctrl.pacer.Armed() {
		t.Error("Expected pacer to be disarmed")
	}

	// Ring contents are left as-is on disable.
	if ring.Used() != 3 {
		t.Errorf("Expected ring contents untouched on disable, got %d used samples", ring.Used())
	}
}

func TestDisableIdempotent(t *testing.T) {
	ctrl, _, _, feeder, _ := newTestController(t)

	ctrl.OnSubscriptionChanged(true)
	ctrl.OnSubscriptionChanged(false)
	ctrl.OnSubscriptionChanged(false)

	if feeder.deactivations.Load() != 1 {
		t.Errorf("Expected 1 feeder deactivation, got %d", feeder.deactivations.Load())
	}
}

func TestDisconnectForcesDisable(t *testing.T) {
	ctrl, _, session, _, _ := newTestController(t)

	ctrl.OnSubscriptionChanged(true)
	ctrl.OnDisconnect()

	if session.State() != StateDisabled {
		t.Errorf("Expected state disabled after disconnect, got %s", session.State())
	}

	// Disconnect while already disabled is a no-op.
	ctrl.OnDisconnect()
	if session.State() != StateDisabled {
		t.Errorf("Expected state to stay disabled, got %s", session.State())
	}
}

func TestReactivationResetsSession(t *testing.T) {
	ctrl, ring, session, _, sink := newTestController(t)

	ctrl.OnSubscriptionChanged(true)

	// Send one frame in the first session.
	ring.Push([]int16{1, 2, 3, 4})
	ctrl.pacer.runOnce()

	ctrl.OnSubscriptionChanged(false)
	ctrl.OnSubscriptionChanged(true)

	info := session.Snapshot()
	if info.PacketsSent != 0 || info.SendErrors != 0 {
		t.Errorf("Expected fresh counters after reactivation, got %+v", info)
	}
	if ring.Used() != 0 {
		t.Errorf("Expected logically empty ring after reactivation, got %d used samples", ring.Used())
	}
	if sink.count() != 1 {
		t.Errorf("Expected the one frame from the first session only, got %d", sink.count())
	}
}

func TestDisableCancelsPendingTick(t *testing.T) {
	ring := audio.NewSampleRing(4096)
	sink := &fakeSink{}
	session := NewSession()
	feeder := &fakeFeeder{}
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 2 * time.Millisecond, FrameSamples: 4})
	ctrl := NewController(session, ring, feeder, pacer, testLogger(), nil)

	ctrl.OnSubscriptionChanged(true)
	ring.Push(make([]int16, 2000))
	time.Sleep(20 * time.Millisecond)

	ctrl.OnSubscriptionChanged(false)
	sent := sink.count()

	time.Sleep(20 * time.Millisecond)
	if sink.count() != sent {
		t.Errorf("Stale tick ran after disable: %d -> %d frames", sent, sink.count())
	}
}
