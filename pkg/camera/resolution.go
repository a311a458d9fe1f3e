package camera

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

const (
	// minPreviewPixels is the smallest capture area worth decoding (480x320).
	minPreviewPixels = 480 * 320

	// maxAspectDistortion is the largest allowed difference between the
	// candidate and display aspect ratios.
	maxAspectDistortion = 0.15
)

// Resolution is a pixel size.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the resolution as WIDTHxHEIGHT.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Pixels returns the pixel count.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// IsZero reports whether the resolution is unknown.
func (r Resolution) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// IsPortrait reports whether the resolution is taller than wide.
func (r Resolution) IsPortrait() bool {
	return r.Width < r.Height
}

// Landscape returns the resolution with the long side as width.
// Camera sensors report their sizes this way.
func (r Resolution) Landscape() Resolution {
	if r.IsPortrait() {
		return Resolution{Width: r.Height, Height: r.Width}
	}
	return r
}

// AspectRatio returns width/height of the landscape form.
func (r Resolution) AspectRatio() float64 {
	l := r.Landscape()
	if l.Height == 0 {
		return 0
	}
	return float64(l.Width) / float64(l.Height)
}

// SelectPreviewSize picks the preview resolution to request from hardware.
//
// Candidates below 480x320 or whose aspect ratio is more than 0.15 away
// from the display's are discarded. Among the rest, an exact match with the
// landscape display size wins outright; otherwise the largest candidate is
// returned. Candidates are scanned largest first and ties keep input order.
// When nothing survives, fallback (the hardware's current size) is returned.
// An empty supported list yields ErrNoSupportedResolutions.
func SelectPreviewSize(supported []Resolution, display, fallback Resolution) (Resolution, error) {
	logger := slog.Default().With("component", "camera.preview")

	if len(supported) == 0 {
		logger.Warn("device returned no supported preview sizes")
		return Resolution{}, ErrNoSupportedResolutions
	}

	screen := display.Landscape()
	screenAspect := screen.AspectRatio()

	candidates := make([]Resolution, len(supported))
	copy(candidates, supported)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Pixels() > candidates[j].Pixels()
	})

	logger.Debug("supported preview sizes", "sizes", candidates)

	var largest *Resolution
	for i := range candidates {
		c := candidates[i]
		if c.Pixels() < minPreviewPixels {
			continue
		}
		flipped := c.Landscape()
		if math.Abs(flipped.AspectRatio()-screenAspect) > maxAspectDistortion {
			continue
		}
		if flipped == screen {
			logger.Info("found preview size exactly matching screen size", "size", c)
			return c, nil
		}
		if largest == nil {
			largest = &candidates[i]
		}
	}

	if largest != nil {
		logger.Info("using largest suitable preview size", "size", *largest)
		return *largest, nil
	}

	logger.Info("no suitable preview sizes, using default", "size", fallback)
	return fallback, nil
}
