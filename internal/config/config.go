package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Audio   AudioConfig   `yaml:"audio"`
	Capture CaptureConfig `yaml:"capture"`
	Pacer   PacerConfig   `yaml:"pacer"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// AudioConfig contains audio format and buffering parameters
type AudioConfig struct {
	SampleRate   int `yaml:"sample_rate"`
	Channels     int `yaml:"channels"`
	BitDepth     int `yaml:"bit_depth"`
	RingCapacity int `yaml:"ring_capacity"` // samples
	FrameSamples int `yaml:"frame_samples"` // samples per outgoing frame
}

// CaptureConfig contains capture driver configuration
type CaptureConfig struct {
	Driver             string  `yaml:"driver"` // "portaudio" or "tone"
	BlockSamples       int     `yaml:"block_samples"`
	BlockCount         int     `yaml:"block_count"`
	ReadTimeoutMS      int     `yaml:"read_timeout_ms"`
	IdlePollIntervalMS int     `yaml:"idle_poll_interval_ms"`
	RetryBackoffMS     int     `yaml:"retry_backoff_ms"`
	ToneFrequency      float64 `yaml:"tone_frequency"`
	LevelLogEvery      int     `yaml:"level_log_every"`
	ErrorLogEvery      int     `yaml:"error_log_every"`
}

// PacerConfig contains frame pacing configuration
type PacerConfig struct {
	PeriodMS         int `yaml:"period_ms"`
	ErrorLogEvery    int `yaml:"error_log_every"`
	ProgressLogEvery int `yaml:"progress_log_every"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Pacer.Validate(); err != nil {
		return fmt.Errorf("pacer config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16 for signed PCM frames, got %d", a.BitDepth)
	}

	if a.RingCapacity < 2 {
		return fmt.Errorf("ring_capacity must be at least 2 samples, got %d", a.RingCapacity)
	}

	if a.FrameSamples < 1 {
		return fmt.Errorf("frame_samples must be at least 1, got %d", a.FrameSamples)
	}

	// One slot of the ring is always unusable, so a full frame must fit
	// in capacity-1 samples.
	if a.FrameSamples >= a.RingCapacity {
		return fmt.Errorf("frame_samples (%d) must be smaller than ring_capacity (%d)",
			a.FrameSamples, a.RingCapacity)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	validDrivers := map[string]bool{"portaudio": true, "tone": true}
	if !validDrivers[c.Driver] {
		return fmt.Errorf("driver must be 'portaudio' or 'tone', got '%s'", c.Driver)
	}

	if c.BlockSamples < 1 {
		return fmt.Errorf("block_samples must be at least 1, got %d", c.BlockSamples)
	}

	if c.BlockCount < 1 {
		return fmt.Errorf("block_count must be at least 1, got %d", c.BlockCount)
	}

	if c.ReadTimeoutMS < 1 {
		return fmt.Errorf("read_timeout_ms must be at least 1, got %d", c.ReadTimeoutMS)
	}

	if c.IdlePollIntervalMS < 1 {
		return fmt.Errorf("idle_poll_interval_ms must be at least 1, got %d", c.IdlePollIntervalMS)
	}

	if c.RetryBackoffMS < 1 {
		return fmt.Errorf("retry_backoff_ms must be at least 1, got %d", c.RetryBackoffMS)
	}

	if c.Driver == "tone" && c.ToneFrequency <= 0 {
		return fmt.Errorf("tone_frequency must be positive for the tone driver, got %f", c.ToneFrequency)
	}

	if c.LevelLogEvery < 1 {
		return fmt.Errorf("level_log_every must be at least 1, got %d", c.LevelLogEvery)
	}

	if c.ErrorLogEvery < 1 {
		return fmt.Errorf("error_log_every must be at least 1, got %d", c.ErrorLogEvery)
	}

	return nil
}

// Validate validates pacer configuration
func (p *PacerConfig) Validate() error {
	if p.PeriodMS < 1 {
		return fmt.Errorf("period_ms must be at least 1, got %d", p.PeriodMS)
	}

	if p.ErrorLogEvery < 1 {
		return fmt.Errorf("error_log_every must be at least 1, got %d", p.ErrorLogEvery)
	}

	if p.ProgressLogEvery < 1 {
		return fmt.Errorf("progress_log_every must be at least 1, got %d", p.ProgressLogEvery)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetReadTimeout returns the capture read timeout as a time.Duration
func (c *CaptureConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// GetIdlePollInterval returns the idle poll interval as a time.Duration
func (c *CaptureConfig) GetIdlePollInterval() time.Duration {
	return time.Duration(c.IdlePollIntervalMS) * time.Millisecond
}

// GetRetryBackoff returns the hard-error retry backoff as a time.Duration
func (c *CaptureConfig) GetRetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// GetPeriod returns the frame pacing period as a time.Duration
func (p *PacerConfig) GetPeriod() time.Duration {
	return time.Duration(p.PeriodMS) * time.Millisecond
}

// FrameDuration returns the wall-clock duration one frame covers
func (a *AudioConfig) FrameDuration() time.Duration {
	return time.Duration(a.FrameSamples) * time.Second / time.Duration(a.SampleRate)
}
