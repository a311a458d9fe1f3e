package decode

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// QRDecoder decodes QR codes with OpenCV's QRCodeDetector.
type QRDecoder struct {
	mu       sync.Mutex
	detector gocv.QRCodeDetector
	logger   *slog.Logger
}

// NewQRDecoder creates a QR decoder. Call Close to release it.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{
		detector: gocv.NewQRCodeDetector(),
		logger:   slog.Default().With("component", "decode.qr"),
	}
}

// Formats implements FormatLister.
func (d *QRDecoder) Formats() FormatSet {
	return NewFormatSet(QRCodeFormats...)
}

// Decode implements Decoder.
func (d *QRDecoder) Decode(sample *Luminance, hints Hints) (Result, error) {
	if !hints.Formats.Allows(FormatQRCode) {
		return Result{}, ErrNotFound
	}

	img, err := gocv.NewMatFromBytes(sample.Height(), sample.Width(), gocv.MatTypeCV8UC1, sample.Matrix())
	if err != nil {
		return Result{}, fmt.Errorf("qr: wrap sample: %w", err)
	}
	defer img.Close()

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	d.mu.Lock()
	text := d.detector.DetectAndDecode(img, &points, &straight)
	d.mu.Unlock()

	corners := matPoints(points)
	if hints.PointCallback != nil {
		for _, p := range corners {
			hints.PointCallback(p)
		}
	}
	if text == "" {
		return Result{}, ErrNotFound
	}

	d.logger.Debug("qr decoded", "length", len(text), "corners", len(corners))
	return Result{
		Text:      text,
		Format:    FormatQRCode,
		Points:    corners,
		DecodedAt: time.Now(),
	}, nil
}

// Close releases the detector.
func (d *QRDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detector.Close()
}

// matPoints reads the 2-channel float corner list the detector writes,
// which OpenCV lays out as either 1xN or Nx1.
func matPoints(m gocv.Mat) []Point {
	if m.Empty() {
		return nil
	}
	out := make([]Point, 0, m.Rows()*m.Cols())
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			v := m.GetVecfAt(r, c)
			if len(v) < 2 {
				continue
			}
			out = append(out, Point{X: v[0], Y: v[1]})
		}
	}
	return out
}
