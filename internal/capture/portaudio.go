//go:build cgo

package capture

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures PCM blocks from the default system microphone via
// portaudio.
type PortAudioSource struct {
	stream *portaudio.Stream
	in     []int16
	pool   *BlockPool
}

// NewPortAudioSource initializes portaudio, opens the default input stream
// and starts capture.
func NewPortAudioSource(pool *BlockPool, cfg PortAudioConfig) (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, cfg.BlockSamples)
	framesPerBuffer := cfg.BlockSamples / cfg.Channels

	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), framesPerBuffer, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &PortAudioSource{
		stream: stream,
		in:     in,
		pool:   pool,
	}, nil
}

// Read blocks until the driver has filled one buffer, then copies it into a
// pool block. The portaudio read itself paces capture at the hardware rate,
// so timeout only bounds the wait for a free block.
func (s *PortAudioSource) Read(timeout time.Duration) (*Block, error) {
	if err := s.stream.Read(); err != nil {
		// Input overflow means the driver dropped samples while we were
		// away; the buffer still holds a full block worth of audio.
		if err != portaudio.InputOverflowed {
			return nil, fmt.Errorf("portaudio read failed: %w", err)
		}
	}

	block, err := s.pool.Get(timeout)
	if err != nil {
		return nil, err
	}

	copy(block.samples, s.in)
	block.n = len(s.in)

	return block, nil
}

// Close stops the stream and tears down portaudio.
func (s *PortAudioSource) Close() error {
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := s.stream.Close(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	portaudio.Terminate()
	return nil
}
