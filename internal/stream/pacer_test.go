package stream

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Armesh26/audio-streamer/internal/audio"
)

// testLogger returns a quiet logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSink records sent frames and can be told to fail.
type fakeSink struct {
	frames [][]byte
	fail   error
	mu     sync.Mutex
}

func (s *fakeSink) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	s.frames = append(s.frames, buf)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func newTestPacer(ring *audio.SampleRing, sink *fakeSink, session *Session, cfg PacerConfig) *Pacer {
	return NewPacer(ring, sink, session, testLogger(), nil, cfg)
}

func TestPacerSendsFullFrame(t *testing.T) {
	ring := audio.NewSampleRing(256)
	sink := &fakeSink{}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 10 * time.Millisecond, FrameSamples: 4})

	ring.Push([]int16{1, -2, 3, -4, 5})

	pacer.runOnce()

	if sink.count() != 1 {
		t.Fatalf("Expected 1 frame sent, got %d", sink.count())
	}

	samples, err := audio.DecodeFrame(sink.frames[0])
	if err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}

	expected := []int16{1, -2, 3, -4}
	if len(samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(samples))
	}
	for i, s := range expected {
		if samples[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, samples[i])
		}
	}

	info := session.Snapshot()
	if info.PacketsSent != 1 {
		t.Errorf("Expected packets_sent 1, got %d", info.PacketsSent)
	}
	if info.Underruns != 0 {
		t.Errorf("Expected no underruns, got %d", info.Underruns)
	}

	// The fifth sample stays behind for the next tick.
	if ring.Used() != 1 {
		t.Errorf("Expected 1 sample left in ring, got %d", ring.Used())
	}
}

func TestPacerSkipsShortFrame(t *testing.T) {
	ring := audio.NewSampleRing(256)
	sink := &fakeSink{}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 10 * time.Millisecond, FrameSamples: 8})

	ring.Push([]int16{1, 2, 3}) // fewer than one frame

	pacer.runOnce()

	if sink.count() != 0 {
		t.Errorf("Expected no frames sent on underrun, got %d", sink.count())
	}

	info := session.Snapshot()
	if info.Underruns != 1 {
		t.Errorf("Expected 1 underrun, got %d", info.Underruns)
	}
	if info.PacketsSent != 0 {
		t.Errorf("Expected no packets sent, got %d", info.PacketsSent)
	}
}

func TestPacerEmptyRingUnderrun(t *testing.T) {
	ring := audio.NewSampleRing(256)
	sink := &fakeSink{}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 10 * time.Millisecond, FrameSamples: 8})

	pacer.runOnce()

	if sink.count() != 0 {
		t.Errorf("Expected no frames sent on empty ring, got %d", sink.count())
	}
	if session.Snapshot().Underruns != 1 {
		t.Errorf("Expected 1 underrun, got %d", session.Snapshot().Underruns)
	}
}

func TestPacerCountsSendErrors(t *testing.T) {
	ring := audio.NewSampleRing(256)
	sink := &fakeSink{fail: errors.New("peer gone")}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 10 * time.Millisecond, FrameSamples: 4, ErrorLogEvery: 10})

	for i := 0; i < 3; i++ {
		ring.Push([]int16{1, 2, 3, 4})
		pacer.runOnce()
	}

	info := session.Snapshot()
	if info.SendErrors != 3 {
		t.Errorf("Expected 3 send errors, got %d", info.SendErrors)
	}
	if info.PacketsSent != 0 {
		t.Errorf("Expected no packets sent, got %d", info.PacketsSent)
	}
}

func TestPacerArmDisarm(t *testing.T) {
	ring := audio.NewSampleRing(4096)
	sink := &fakeSink{}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: 2 * time.Millisecond, FrameSamples: 4})

	// Keep the ring topped up so every tick sends.
	ring.Push(make([]int16, 2000))

	pacer.Arm()
	if !pacer.Armed() {
		t.Fatal("Expected pacer to be armed")
	}

	time.Sleep(30 * time.Millisecond)

	pacer.Disarm()
	if pacer.Armed() {
		t.Fatal("Expected pacer to be disarmed")
	}

	sent := sink.count()
	if sent == 0 {
		t.Fatal("Expected ticks to fire while armed")
	}

	// No stale tick may run after Disarm returns.
	time.Sleep(20 * time.Millisecond)
	if sink.count() != sent {
		t.Errorf("Frames sent after disarm: %d -> %d", sent, sink.count())
	}
}

func TestPacerArmIdempotent(t *testing.T) {
	ring := audio.NewSampleRing(256)
	sink := &fakeSink{}
	session := NewSession()
	pacer := newTestPacer(ring, sink, session, PacerConfig{Period: time.Hour, FrameSamples: 4})

	pacer.Arm()
	pacer.Arm()
	if !pacer.Armed() {
		t.Error("Expected pacer to stay armed")
	}
	pacer.Disarm()

	pacer.Disarm() // second disarm is a no-op
	if pacer.Armed() {
		t.Error("Expected pacer to stay disarmed")
	}
}
