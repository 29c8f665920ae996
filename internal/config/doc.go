// Package config provides configuration loading and validation for the audio
// streaming service. It handles YAML-based configuration with per-section
// struct validation covering the HTTP surface, audio format, capture driver,
// frame pacing and logging.
package config
