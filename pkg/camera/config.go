// Package camera owns the capture side of the scanner: choosing a preview
// resolution, mapping the on-screen scanning window into camera pixels, and
// serializing access to the camera hardware through Source.
package camera

import "fmt"

// Config holds the capture settings for a scanning session.
// They are read when a session starts; later edits apply to the next one.
type Config struct {
	// === Device ===
	// Device is the camera index to open. -1 picks the first back-facing
	// camera, or camera 0 if none faces back.
	Device int `json:"device"`

	// Facing is reported for every camera of the gocv driver, which cannot
	// query it. Values: "back", "front", "external"
	Facing string `json:"facing"`

	// CameraCount is how many device indices the gocv driver exposes.
	CameraCount int `json:"camera_count"`

	// === Display ===
	DisplayWidth  int `json:"display_width"`  // Screen width in pixels
	DisplayHeight int `json:"display_height"` // Screen height in pixels

	// Orientation is the preview rotation in degrees (0, 90, 180, 270).
	Orientation int `json:"orientation"`

	// === Capture ===
	// Candidates are the preview sizes offered to resolution negotiation
	// by drivers that cannot enumerate them.
	Candidates []Resolution `json:"candidates"`

	// Framerate is the target FPS for the preview stream.
	Framerate int `json:"framerate"`

	// === Focus ===
	// Focus values: "auto", "continuous", "safe", "manual"
	Focus FocusPreference `json:"focus"`
}

// DefaultOrientation is the sensor-to-display rotation of a phone-style
// back camera.
const DefaultOrientation = 90

// DefaultCandidates is the preview size list used when a driver cannot
// enumerate its own.
func DefaultCandidates() []Resolution {
	return []Resolution{
		{Width: 1920, Height: 1080},
		{Width: 1280, Height: 720},
		{Width: 1024, Height: 768},
		{Width: 800, Height: 600},
		{Width: 640, Height: 480},
		{Width: 320, Height: 240},
	}
}

// DefaultConfig returns settings for a portrait 1080p display.
func DefaultConfig() Config {
	return Config{
		Device:        -1,
		Facing:        "back",
		CameraCount:   1,
		DisplayWidth:  1080,
		DisplayHeight: 1920,
		Orientation:   DefaultOrientation,
		Candidates:    DefaultCandidates(),
		Framerate:     30,
		Focus:         FocusContinuous,
	}
}

// Display returns the configured display size.
func (c *Config) Display() Resolution {
	return Resolution{Width: c.DisplayWidth, Height: c.DisplayHeight}
}

// FacingValue parses Facing.
func (c *Config) FacingValue() Facing {
	switch c.Facing {
	case "front":
		return FacingFront
	case "external":
		return FacingExternal
	default:
		return FacingBack
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < -1 {
		errors = append(errors, "device must be -1 (any) or a camera index")
	}
	validFacing := map[string]bool{"back": true, "front": true, "external": true}
	if c.Facing != "" && !validFacing[c.Facing] {
		errors = append(errors, "facing must be back, front, or external")
	}
	if c.CameraCount < 0 || c.CameraCount > 16 {
		errors = append(errors, "camera_count must be between 0 and 16")
	}

	if c.DisplayWidth < 1 || c.DisplayHeight < 1 {
		errors = append(errors, "display_width and display_height must be positive")
	}
	switch c.Orientation {
	case 0, 90, 180, 270:
	default:
		errors = append(errors, "orientation must be 0, 90, 180, or 270")
	}

	for _, r := range c.Candidates {
		if r.IsZero() {
			errors = append(errors, fmt.Sprintf("candidate %s is not a valid size", r))
		}
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}

	if c.Focus != "" && !c.Focus.Valid() {
		errors = append(errors, "focus must be auto, continuous, safe, or manual")
	}

	return errors
}

// Options converts the config into Source options.
func (c *Config) Options() Options {
	return Options{
		RequestedCamera: c.Device,
		Display:         c.Display(),
		Focus:           c.Focus,
		Orientation:     c.Orientation,
	}
}
