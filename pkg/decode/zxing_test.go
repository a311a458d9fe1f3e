package decode

import (
	"errors"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/teslashibe/go-scan/pkg/camera"
)

// renderSample encodes contents with w and converts the matrix to a
// luminance sample, black modules dark.
func renderSample(t *testing.T, w gozxing.Writer, contents string, format gozxing.BarcodeFormat, width, height int) *Luminance {
	t.Helper()

	bm, err := w.Encode(contents, format, width, height, nil)
	if err != nil {
		t.Fatalf("encode %q: %v", contents, err)
	}
	bw, bh := bm.GetWidth(), bm.GetHeight()
	data := make([]byte, bw*bh)
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			if !bm.Get(x, y) {
				data[y*bw+x] = 255
			}
		}
	}
	l, err := NewLuminance(data, bw, bh, camera.Rect{Left: 0, Top: 0, Right: bw, Bottom: bh})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestZXingDecoder(t *testing.T) {
	d := NewZXingDecoder()

	tests := []struct {
		name    string
		writer  gozxing.Writer
		format  gozxing.BarcodeFormat
		text    string
		w, h    int
		formats FormatSet
		want    Format
	}{
		{"ean13 restricted", oned.NewEAN13Writer(), gozxing.BarcodeFormat_EAN_13, "5901234123457", 300, 120, NewFormatSet(FormatEAN13), FormatEAN13},
		{"ean13 default groups", oned.NewEAN13Writer(), gozxing.BarcodeFormat_EAN_13, "5901234123457", 300, 120, DefaultFormatPrefs().Formats(), FormatEAN13},
		{"code128", oned.NewCode128Writer(), gozxing.BarcodeFormat_CODE_128, "SCAN-42", 300, 120, NewFormatSet(IndustrialFormats...), FormatCode128},
		{"qr any", qrcode.NewQRCodeWriter(), gozxing.BarcodeFormat_QR_CODE, "https://go.dev", 200, 200, nil, FormatQRCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := renderSample(t, tt.writer, tt.text, tt.format, tt.w, tt.h)

			var seen int
			res, err := d.Decode(sample, Hints{Formats: tt.formats, PointCallback: func(Point) { seen++ }})
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if res.Text != tt.text || res.Format != tt.want {
				t.Errorf("got %q %s, want %q %s", res.Text, res.Format, tt.text, tt.want)
			}
			if len(res.Points) == 0 || seen != len(res.Points) {
				t.Errorf("points = %d, callback saw %d", len(res.Points), seen)
			}
			for _, p := range res.Points {
				if p.X < 0 || p.Y < 0 || int(p.X) > sample.Width() || int(p.Y) > sample.Height() {
					t.Errorf("point %+v outside %dx%d sample", p, sample.Width(), sample.Height())
				}
			}
		})
	}
}

func TestZXingDecoder_FormatNotAllowed(t *testing.T) {
	d := NewZXingDecoder()
	sample := renderSample(t, oned.NewEAN13Writer(), "5901234123457", gozxing.BarcodeFormat_EAN_13, 300, 120)

	_, err := d.Decode(sample, Hints{Formats: NewFormatSet(FormatQRCode, FormatDataMatrix)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestZXingDecoder_BlankSample(t *testing.T) {
	d := NewZXingDecoder()

	data := make([]byte, 120*120)
	for i := range data {
		data[i] = 255
	}
	sample, _ := NewLuminance(data, 120, 120, camera.Rect{Left: 0, Top: 0, Right: 120, Bottom: 120})
	if _, err := d.Decode(sample, Hints{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUnserved(t *testing.T) {
	chain, _ := NewChain(NewZXingDecoder(), NewZXingDecoder())

	tests := []struct {
		name string
		want FormatSet
		d    Decoder
		out  []Format
	}{
		{"empty wants anything", nil, chain, nil},
		{"all served", NewFormatSet(FormatQRCode, FormatEAN13), chain, nil},
		{"pdf417 missing", NewFormatSet(FormatPDF417, FormatEAN13), chain, []Format{FormatPDF417}},
		{"defaults miss rss", DefaultFormatPrefs().Formats(), chain, []Format{FormatRSS14, FormatRSSExpanded}},
		{"unlisted decoder", NewFormatSet(FormatPDF417), NewMock(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unserved(tt.want, tt.d).List()
			if len(got) != len(tt.out) {
				t.Fatalf("Unserved = %v, want %v", got, tt.out)
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Errorf("Unserved = %v, want %v", got, tt.out)
				}
			}
		})
	}
}
