package camera

import (
	"log/slog"
	"slices"
)

// FocusPreference is the user's focus choice for a scanning session.
type FocusPreference string

const (
	// FocusAuto uses plain autofocus.
	FocusAuto FocusPreference = "auto"
	// FocusContinuous prefers continuous video focus, falling back to auto.
	FocusContinuous FocusPreference = "continuous"
	// FocusSafe requests plain autofocus and never tries exotic modes.
	FocusSafe FocusPreference = "safe"
	// FocusManual disables autofocus.
	FocusManual FocusPreference = "manual"
)

// Valid reports whether p is a known preference.
func (p FocusPreference) Valid() bool {
	switch p {
	case FocusAuto, FocusContinuous, FocusSafe, FocusManual:
		return true
	}
	return false
}

// negotiateFocus picks a supported focus mode for the preference and writes
// it into params. Safe mode restricts the choice to plain autofocus.
func negotiateFocus(params *Parameters, pref FocusPreference, safeMode bool) {
	logger := slog.Default().With("component", "camera.focus")
	supported := params.SupportedFocusModes

	autoFocus := pref != FocusManual
	safeMode = safeMode || pref == FocusSafe

	var mode FocusMode
	if autoFocus {
		if safeMode || pref != FocusContinuous {
			mode = findSettableFocus(supported, FocusModeAuto)
		} else {
			mode = findSettableFocus(supported, FocusModeContinuousVideo, FocusModeAuto)
		}
	}
	if !safeMode && mode == "" {
		mode = findSettableFocus(supported, FocusModeMacro, FocusModeEDOF)
	}
	if mode == "" {
		logger.Info("no supported focus mode matches", "preference", pref, "supported", supported)
		return
	}
	if mode == params.FocusMode {
		logger.Info("focus mode already set", "mode", mode)
		return
	}
	params.FocusMode = mode
}

func findSettableFocus(supported []FocusMode, desired ...FocusMode) FocusMode {
	for _, d := range desired {
		if slices.Contains(supported, d) {
			return d
		}
	}
	return ""
}
