// Package config provides environment helpers for go-scan commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultPort        = "8090"
	DefaultHistoryFile = "history.json"
)

// Port returns the dashboard port from SCAN_PORT or the default.
func Port() string {
	if port := os.Getenv("SCAN_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// DeviceID returns the requested camera index from SCAN_DEVICE.
// Returns -1 (no explicit request) when unset or not a number.
func DeviceID() int {
	if v := os.Getenv("SCAN_DEVICE"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			return id
		}
	}
	return -1
}

// HistoryPath returns the scan history file from SCAN_HISTORY,
// falling back to ~/.goscan/history.json.
func HistoryPath() string {
	if path := os.Getenv("SCAN_HISTORY"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(home, ".goscan", DefaultHistoryFile)
}

// DisplayOverride returns SCAN_DISPLAY as set, or "" when unset.
func DisplayOverride() string {
	return os.Getenv("SCAN_DISPLAY")
}

// ParseSize parses a "WIDTHxHEIGHT" string.
func ParseSize(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return width, height, nil
}

// DashboardURL returns the base HTTP URL of a dashboard on host:port.
func DashboardURL(host, port string) string {
	return fmt.Sprintf("http://%s:%s", host, port)
}

// ResultsSocketURL returns the websocket URL streaming scan results.
func ResultsSocketURL(host, port string) string {
	return fmt.Sprintf("ws://%s:%s/ws/results", host, port)
}
