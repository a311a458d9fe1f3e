package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the capture configuration for the next scanning session
// and handles updates from the dashboard.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (the running session keeps its settings)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with default config.
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// NewManagerWithConfig creates a manager seeded with cfg.
func NewManagerWithConfig(cfg Config) (*Manager, error) {
	if errors := cfg.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errors)
	}
	return &Manager{config: cfg}, nil
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.config
	cfg.Candidates = append([]Resolution(nil), m.config.Candidates...)
	return cfg
}

// SetConfig updates the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, plus an optional "preset".
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	// Check for preset first
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "device":
			if v, ok := toInt(value); ok {
				cfg.Device = v
			}
		case "facing":
			if v, ok := value.(string); ok {
				cfg.Facing = v
			}
		case "camera_count":
			if v, ok := toInt(value); ok {
				cfg.CameraCount = v
			}
		case "display_width":
			if v, ok := toInt(value); ok {
				cfg.DisplayWidth = v
			}
		case "display_height":
			if v, ok := toInt(value); ok {
				cfg.DisplayHeight = v
			}
		case "orientation":
			if v, ok := toInt(value); ok {
				cfg.Orientation = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "focus":
			if v, ok := value.(string); ok {
				cfg.Focus = FocusPreference(v)
			}
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
