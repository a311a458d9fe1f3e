package decode

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-scan/pkg/camera"
)

// Luminance is a cropped single-channel brightness sample, one byte per
// pixel, row-major.
type Luminance struct {
	pix    []byte
	width  int
	height int
}

// NewLuminance crops region out of the first width*height bytes of data.
func NewLuminance(data []byte, width, height int, region camera.Rect) (*Luminance, error) {
	if err := checkPlane(data, width, height); err != nil {
		return nil, err
	}
	if !fits(region, width, height) {
		return nil, fmt.Errorf("%w: %s in %dx%d", ErrRegionOutOfBounds, region, width, height)
	}

	w, h := region.Width(), region.Height()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		src := (region.Top+y)*width + region.Left
		copy(pix[y*w:(y+1)*w], data[src:src+w])
	}
	return &Luminance{pix: pix, width: w, height: h}, nil
}

// NewRotatedLuminance crops region out of the plane as it would look after
// a 90 degree clockwise rotation, without rotating the whole frame. Region
// coordinates are in the rotated (height x width) space.
func NewRotatedLuminance(data []byte, width, height int, region camera.Rect) (*Luminance, error) {
	if err := checkPlane(data, width, height); err != nil {
		return nil, err
	}
	if !fits(region, height, width) {
		return nil, fmt.Errorf("%w: %s in rotated %dx%d", ErrRegionOutOfBounds, region, height, width)
	}

	w, h := region.Width(), region.Height()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		srcX := region.Top + y
		for x := 0; x < w; x++ {
			srcY := height - 1 - (region.Left + x)
			pix[y*w+x] = data[srcY*width+srcX]
		}
	}
	return &Luminance{pix: pix, width: w, height: h}, nil
}

// SampleFrame builds the luminance sample for region. The region is tried
// in the frame's own orientation first; if it only fits the rotated frame,
// the frame is read as rotated.
func SampleFrame(f camera.Frame, region camera.Rect) (*Luminance, error) {
	if fits(region, f.Width, f.Height) {
		return NewLuminance(f.Data, f.Width, f.Height, region)
	}
	return NewRotatedLuminance(f.Data, f.Width, f.Height, region)
}

func checkPlane(data []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrRegionOutOfBounds, width, height)
	}
	if len(data) < width*height {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortFrame, len(data), width*height)
	}
	return nil
}

func fits(r camera.Rect, width, height int) bool {
	return !r.Empty() && r.Left >= 0 && r.Top >= 0 && r.Right <= width && r.Bottom <= height
}

// Width returns the sample width.
func (l *Luminance) Width() int { return l.width }

// Height returns the sample height.
func (l *Luminance) Height() int { return l.height }

// Row copies row y into buf, allocating if buf is too small.
func (l *Luminance) Row(y int, buf []byte) []byte {
	if y < 0 || y >= l.height {
		return nil
	}
	if cap(buf) < l.width {
		buf = make([]byte, l.width)
	}
	buf = buf[:l.width]
	copy(buf, l.pix[y*l.width:(y+1)*l.width])
	return buf
}

// Matrix returns the whole sample. The caller must not modify it.
func (l *Luminance) Matrix() []byte { return l.pix }

// Image wraps the sample as an *image.Gray sharing its pixels.
func (l *Luminance) Image() *image.Gray {
	return &image.Gray{
		Pix:    l.pix,
		Stride: l.width,
		Rect:   image.Rect(0, 0, l.width, l.height),
	}
}
