package camera

// Preset names for common scanning setups
const (
	PresetDefault    = "default"
	PresetPhone720p  = "phone720p"
	PresetTablet     = "tablet"
	PresetLandscape  = "landscape"
	PresetSafe       = "safe"
	PresetFixedFocus = "fixed-focus"
	PresetWebcam     = "webcam"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetPhone720p:  Phone720Config(),
		PresetTablet:     TabletConfig(),
		PresetLandscape:  LandscapeConfig(),
		PresetSafe:       SafeConfig(),
		PresetFixedFocus: FixedFocusConfig(),
		PresetWebcam:     WebcamConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetPhone720p,
		PresetTablet,
		PresetLandscape,
		PresetSafe,
		PresetFixedFocus,
		PresetWebcam,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// Phone720Config targets a 720x1280 portrait screen.
func Phone720Config() Config {
	cfg := DefaultConfig()
	cfg.DisplayWidth = 720
	cfg.DisplayHeight = 1280
	return cfg
}

// TabletConfig targets a 1536x2048 portrait tablet.
func TabletConfig() Config {
	cfg := DefaultConfig()
	cfg.DisplayWidth = 1536
	cfg.DisplayHeight = 2048
	return cfg
}

// LandscapeConfig targets a 1920x1080 monitor with an unrotated preview.
func LandscapeConfig() Config {
	cfg := DefaultConfig()
	cfg.DisplayWidth = 1920
	cfg.DisplayHeight = 1080
	cfg.Orientation = 0
	return cfg
}

// SafeConfig only asks for plain autofocus.
// Use this when a camera rejects the default configuration.
func SafeConfig() Config {
	cfg := DefaultConfig()
	cfg.Focus = FocusSafe
	return cfg
}

// FixedFocusConfig disables autofocus, for cameras that hunt.
func FixedFocusConfig() Config {
	cfg := DefaultConfig()
	cfg.Focus = FocusManual
	return cfg
}

// WebcamConfig suits a USB webcam on a desktop.
func WebcamConfig() Config {
	cfg := LandscapeConfig()
	cfg.Facing = "external"
	cfg.Framerate = 15
	cfg.Focus = FocusAuto
	return cfg
}
