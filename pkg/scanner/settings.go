package scanner

import "github.com/teslashibe/go-scan/pkg/decode"

// Settings are read once when a pipeline starts.
type Settings struct {
	// Formats, if non-empty, overrides FormatPrefs.
	Formats decode.FormatSet `json:"formats,omitempty"`

	// FormatPrefs selects format groups.
	FormatPrefs decode.FormatPrefs `json:"format_prefs"`

	// CharacterSet is passed to decoders as a hint.
	CharacterSet string `json:"character_set,omitempty"`
}

// DefaultSettings enables the default format groups.
func DefaultSettings() Settings {
	return Settings{FormatPrefs: decode.DefaultFormatPrefs()}
}

// Hints builds decoder hints. Feature points are collected into points
// when it is non-nil.
func (s Settings) Hints(points *decode.PointList) decode.Hints {
	h := decode.Hints{
		Formats:      decode.ResolveFormats(s.Formats, s.FormatPrefs),
		CharacterSet: s.CharacterSet,
	}
	if points != nil {
		h.PointCallback = points.Add
	}
	return h
}
