package capture

import (
	"math"
	"time"
)

// ToneConfig contains parameters for the synthetic tone driver.
type ToneConfig struct {
	SampleRate   int
	BlockSamples int
	Frequency    float64
	Amplitude    float64 // fraction of full scale, 0..1
}

// ToneSource is a capture driver that synthesizes a continuous sine wave at
// real-time rate. It is used for bring-up and soak testing when no microphone
// is attached.
type ToneSource struct {
	pool    *BlockPool
	cfg     ToneConfig
	phase   float64
	step    float64
	nextDue time.Time
}

// NewToneSource creates a tone driver producing blocks from the given pool.
func NewToneSource(pool *BlockPool, cfg ToneConfig) *ToneSource {
	if cfg.Amplitude <= 0 || cfg.Amplitude > 1 {
		cfg.Amplitude = 0.5
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 440
	}
	return &ToneSource{
		pool: pool,
		cfg:  cfg,
		step: 2 * math.Pi * cfg.Frequency / float64(cfg.SampleRate),
	}
}

// Read waits until the next block of audio is due, then returns it filled
// with sine samples. The phase is continuous across blocks.
func (s *ToneSource) Read(timeout time.Duration) (*Block, error) {
	now := time.Now()
	if s.nextDue.IsZero() {
		s.nextDue = now
	}

	if wait := s.nextDue.Sub(now); wait > 0 {
		if wait > timeout {
			time.Sleep(timeout)
			return nil, ErrNoData
		}
		time.Sleep(wait)
	}

	block, err := s.pool.Get(timeout)
	if err != nil {
		return nil, err
	}

	scale := s.cfg.Amplitude * 32767
	for i := range block.samples {
		block.samples[i] = int16(scale * math.Sin(s.phase))
		s.phase += s.step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	block.n = len(block.samples)

	blockDuration := time.Duration(s.cfg.BlockSamples) * time.Second / time.Duration(s.cfg.SampleRate)
	s.nextDue = s.nextDue.Add(blockDuration)

	return block, nil
}

// Close implements Source. The tone driver holds no resources.
func (s *ToneSource) Close() error {
	return nil
}
