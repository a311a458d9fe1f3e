package decode

import (
	"errors"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/teslashibe/go-scan/pkg/camera"
)

func TestQRDecoder_BlankSample(t *testing.T) {
	d := NewQRDecoder()
	defer d.Close()

	data := make([]byte, 120*120)
	for i := range data {
		data[i] = 255
	}
	sample, err := NewLuminance(data, 120, 120, camera.Rect{Left: 0, Top: 0, Right: 120, Bottom: 120})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.Decode(sample, Hints{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestQRDecoder_FormatNotAllowed(t *testing.T) {
	d := NewQRDecoder()
	defer d.Close()

	sample, _ := NewLuminance(plane(8, 8), 8, 8, camera.Rect{Left: 0, Top: 0, Right: 8, Bottom: 8})
	_, err := d.Decode(sample, Hints{Formats: NewFormatSet(FormatEAN13)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestQRDecoder_Decodes(t *testing.T) {
	d := NewQRDecoder()
	defer d.Close()

	// Version 1 at 200px: 6px modules, symbol spans 37..163
	sample := renderSample(t, qrcode.NewQRCodeWriter(), "https://go.dev", gozxing.BarcodeFormat_QR_CODE, 200, 200)

	var seen []Point
	res, err := d.Decode(sample, Hints{
		Formats:       NewFormatSet(FormatQRCode),
		PointCallback: func(p Point) { seen = append(seen, p) },
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "https://go.dev" || res.Format != FormatQRCode {
		t.Errorf("got %q %s", res.Text, res.Format)
	}
	if len(res.Points) != 4 || len(seen) != 4 {
		t.Fatalf("corners = %d, callback saw %d; want 4", len(res.Points), len(seen))
	}
	for _, p := range res.Points {
		if p.X < 29 || p.X > 171 || p.Y < 29 || p.Y > 171 {
			t.Errorf("corner %+v not on the symbol", p)
		}
	}
}
