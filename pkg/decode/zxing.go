package decode

import (
	"log/slog"
	"sync"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// zxingReader pairs a gozxing reader with the format it reports.
type zxingReader struct {
	format Format
	reader gozxing.Reader
}

// ZXingDecoder decodes QR, Data Matrix, Aztec and the 1D product and
// industrial codes with gozxing. Only readers for allowed formats run,
// 2D readers before the row scanners.
type ZXingDecoder struct {
	mu      sync.Mutex
	readers []zxingReader
	logger  *slog.Logger
}

// NewZXingDecoder creates a decoder with one reader per supported format.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		// UPC-A goes before EAN-13 so a leading zero reports as UPC-A
		readers: []zxingReader{
			{FormatQRCode, qrcode.NewQRCodeReader()},
			{FormatDataMatrix, datamatrix.NewDataMatrixReader()},
			{FormatAztec, aztec.NewAztecReader()},
			{FormatUPCA, oned.NewUPCAReader()},
			{FormatUPCE, oned.NewUPCEReader()},
			{FormatEAN13, oned.NewEAN13Reader()},
			{FormatEAN8, oned.NewEAN8Reader()},
			{FormatCode39, oned.NewCode39Reader()},
			{FormatCode93, oned.NewCode93Reader()},
			{FormatCode128, oned.NewCode128Reader()},
			{FormatITF, oned.NewITFReader()},
			{FormatCodabar, oned.NewCodaBarReader()},
		},
		logger: slog.Default().With("component", "decode.zxing"),
	}
}

// Formats implements FormatLister.
func (d *ZXingDecoder) Formats() FormatSet {
	s := FormatSet{}
	for _, r := range d.readers {
		s.Add(r.format)
	}
	return s
}

// Decode implements Decoder. Reader errors (not found, checksum, format)
// all mean this sample holds nothing readable for that format.
func (d *ZXingDecoder) Decode(sample *Luminance, hints Hints) (Result, error) {
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(gozxing.NewLuminanceSourceFromImage(sample.Image())))
	if err != nil {
		return Result{}, ErrNotFound
	}

	zhints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	if hints.CharacterSet != "" {
		zhints[gozxing.DecodeHintType_CHARACTER_SET] = hints.CharacterSet
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.readers {
		if !hints.Formats.Allows(r.format) {
			continue
		}
		res, err := r.reader.Decode(bmp, zhints)
		r.reader.Reset()
		if err != nil {
			continue
		}

		points := make([]Point, 0, len(res.GetResultPoints()))
		for _, p := range res.GetResultPoints() {
			if p == nil {
				continue
			}
			pt := Point{X: float32(p.GetX()), Y: float32(p.GetY())}
			points = append(points, pt)
			if hints.PointCallback != nil {
				hints.PointCallback(pt)
			}
		}

		d.logger.Debug("zxing decoded", "format", r.format, "length", len(res.GetText()))
		return Result{
			Text:      res.GetText(),
			Format:    r.format,
			Points:    points,
			DecodedAt: time.Now(),
		}, nil
	}
	return Result{}, ErrNotFound
}
