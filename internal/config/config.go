// Package config provides the configuration structure for the voice-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                 string `toml:"url"`
	ArtifactBucket      string `toml:"artifact_bucket"`
	AudioCreatedSubject string `toml:"audio_created_subject"`
}

// HTTPConfig holds the configuration for the HTTP surface.
type HTTPConfig struct {
	ListenAddress string `toml:"listen_address"`
}

// SynthesisConfig holds the configuration for the synthesis engine adapter.
type SynthesisConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Workers        int    `toml:"workers"`
}

// ExtractionConfig holds the configuration for the embedding engine adapter.
type ExtractionConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	HTTP       HTTPConfig       `toml:"http"`
	Synthesis  SynthesisConfig  `toml:"synthesis"`
	Extraction ExtractionConfig `toml:"extraction"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the voice-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
