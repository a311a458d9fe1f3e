package camera

import (
	"fmt"
	"image"
)

// Capture window bounds, per axis, in screen pixels.
const (
	MinFrameWidth  = 240
	MinFrameHeight = 240
	MaxFrameWidth  = 1200 // 5/8 * 1920
	MaxFrameHeight = 675  // 5/8 * 1080
)

// Rect is an axis-aligned rectangle; Right and Bottom are exclusive.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Image converts the rectangle to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// ComputeCaptureRegion returns the on-screen scanning rectangle for a
// display. Each side is 5/8 of the display, clamped to the frame bounds,
// then shrunk to 4/5 and centered.
func ComputeCaptureRegion(display Resolution) Rect {
	width := dimensionInRange(display.Width, MinFrameWidth, MaxFrameWidth) * 4 / 5
	height := dimensionInRange(display.Height, MinFrameHeight, MaxFrameHeight) * 4 / 5
	left := (display.Width - width) / 2
	top := (display.Height - height) / 2
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}
}

func dimensionInRange(resolution, hardMin, hardMax int) int {
	dim := 5 * resolution / 8
	if dim < hardMin {
		return hardMin
	}
	if dim > hardMax {
		return hardMax
	}
	return dim
}

// MapToPreview re-expresses a screen region in camera preview pixels.
//
// The sensor is mounted 90 degrees from the display, so the screen's x axis
// runs along the camera's height and y along its width. Returns false when
// either resolution is unknown.
func MapToPreview(region Rect, cameraRes, display Resolution) (Rect, bool) {
	if cameraRes.IsZero() || display.IsZero() {
		return Rect{}, false
	}
	return Rect{
		Left:   region.Left * cameraRes.Height / display.Width,
		Right:  region.Right * cameraRes.Height / display.Width,
		Top:    region.Top * cameraRes.Width / display.Height,
		Bottom: region.Bottom * cameraRes.Width / display.Height,
	}, true
}
