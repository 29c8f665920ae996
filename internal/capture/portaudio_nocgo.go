//go:build !cgo

package capture

import (
	"errors"
	"time"
)

// PortAudioSource captures PCM blocks from the default system microphone via
// portaudio. The real driver requires cgo; this build has it disabled, so the
// constructor always fails and callers must use another driver.
type PortAudioSource struct{}

var errNoCgo = errors.New("portaudio driver unavailable: binary built without cgo")

// NewPortAudioSource reports that the portaudio driver is unavailable in
// builds without cgo.
func NewPortAudioSource(pool *BlockPool, cfg PortAudioConfig) (*PortAudioSource, error) {
	return nil, errNoCgo
}

// Read always fails in builds without cgo.
func (s *PortAudioSource) Read(timeout time.Duration) (*Block, error) {
	return nil, errNoCgo
}

// Close is a no-op in builds without cgo.
func (s *PortAudioSource) Close() error {
	return nil
}
