// Package app wires the camera, decoder, pipeline and dashboard into one
// scanning application.
package app

import (
	"time"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
)

// Default configuration values.
const (
	DefaultMockText  = "https://go.dev"
	DefaultMockEvery = 5
)

// Config holds all configuration for the scanner application.
// Flag parsing is done in cmd/scanner/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFrames logs every decode attempt.
	DebugFrames bool

	// LogLevel is passed to internal/log ("debug", "info", "warn", "error").
	LogLevel string

	// Port is the dashboard HTTP port.
	Port string

	// HistoryPath is the scan history file. Empty disables history.
	HistoryPath string

	// Camera is the capture configuration for the first session.
	Camera camera.Config

	// Formats, if non-empty, restricts decoding to these formats.
	Formats decode.FormatSet

	// FormatPrefs selects format groups when Formats is empty.
	FormatPrefs decode.FormatPrefs

	// CharacterSet is passed to decoders as a hint.
	CharacterSet string

	// AutoResume restarts scanning this long after a success. Zero waits
	// for a resume from the dashboard.
	AutoResume time.Duration

	// Mock replaces the camera with a synthetic device and the decoder with
	// one that finds MockText every MockEvery attempts.
	Mock      bool
	MockText  string
	MockEvery int
}

// DefaultConfig returns sensible defaults for the scanner.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Port:        "8090",
		Camera:      camera.DefaultConfig(),
		FormatPrefs: decode.DefaultFormatPrefs(),
		MockText:    DefaultMockText,
		MockEvery:   DefaultMockEvery,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "dashboard port is required"}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: "camera config: " + errs[0]}
	}
	if c.Mock && c.MockEvery <= 0 {
		return &ConfigError{Field: "MockEvery", Message: "mock decoder needs a positive interval"}
	}
	if c.AutoResume < 0 {
		return &ConfigError{Field: "AutoResume", Message: "auto resume delay cannot be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
