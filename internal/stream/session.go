package stream

import (
	"sync"
	"time"
)

// State is the lifecycle state of the streaming session.
type State int

const (
	// StateDisabled means no peer subscription is active; the pacer is
	// disarmed and the feeder idles.
	StateDisabled State = iota
	// StateActive means a subscription is active and frames are being
	// paced to the sink.
	StateActive
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Session tracks the state and counters of the streaming subscription. It is
// created disabled at process start, mutated only by the controller and
// pacer, and never destroyed; counters reset on every activation.
type Session struct {
	state       State
	packetsSent uint64
	sendErrors  uint64
	underruns   uint64
	startedAt   time.Time
	mu          sync.RWMutex
}

// SessionInfo is a snapshot of session state for monitoring and APIs.
type SessionInfo struct {
	State       string        `json:"state"`
	PacketsSent uint64        `json:"packets_sent"`
	SendErrors  uint64        `json:"send_errors"`
	Underruns   uint64        `json:"underruns"`
	SuccessRate float64       `json:"success_rate_percent"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	ActiveFor   time.Duration `json:"active_for,omitempty"`
}

// NewSession creates a session in the disabled state.
func NewSession() *Session {
	return &Session{state: StateDisabled}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a copy of the session counters.
func (s *Session) Snapshot() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{
		State:       s.state.String(),
		PacketsSent: s.packetsSent,
		SendErrors:  s.sendErrors,
		Underruns:   s.underruns,
	}

	if s.packetsSent+s.sendErrors > 0 {
		info.SuccessRate = float64(s.packetsSent) * 100 / float64(s.packetsSent+s.sendErrors)
	}

	if s.state == StateActive {
		info.StartedAt = s.startedAt
		info.ActiveFor = time.Since(s.startedAt)
	}

	return info
}

// activate transitions to StateActive and resets all counters.
func (s *Session) activate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateActive
	s.packetsSent = 0
	s.sendErrors = 0
	s.underruns = 0
	s.startedAt = time.Now()
}

// deactivate transitions to StateDisabled. Counters are kept for the final
// stats log.
func (s *Session) deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateDisabled
}

func (s *Session) recordSent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packetsSent++
	return s.packetsSent
}

func (s *Session) recordSendError() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendErrors++
	return s.sendErrors
}

func (s *Session) recordUnderrun() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.underruns++
	return s.underruns
}
