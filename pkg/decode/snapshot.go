package decode

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Thumbnail settings for success snapshots.
const (
	ThumbnailDivisor = 2
	ThumbnailQuality = 50
)

// Snapshot is a compressed thumbnail of the sample a symbol was found in.
// Result points multiplied by ScaleFactor land on the thumbnail.
type Snapshot struct {
	JPEG        []byte  `json:"-"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scale_factor"`
}

// NewSnapshot downsamples the sample and encodes it as JPEG.
func NewSnapshot(sample *Luminance) (*Snapshot, error) {
	src := sample.Image()
	w := max(1, sample.Width()/ThumbnailDivisor)
	h := max(1, sample.Height()/ThumbnailDivisor)

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, err
	}
	return &Snapshot{
		JPEG:        buf.Bytes(),
		Width:       w,
		Height:      h,
		ScaleFactor: float64(w) / float64(sample.Width()),
	}, nil
}
