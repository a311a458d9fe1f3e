// Package decode runs symbol decoding off the coordinator's goroutine.
//
// A Worker owns one goroutine and an inbound queue. Each DecodeRequest is
// cropped to a Luminance sample, handed to a Decoder, and answered with
// exactly one Outcome on the worker's sink.
package decode

import "time"

// Decoder finds and decodes a symbol in a luminance sample.
// Decode returns ErrNotFound when the sample holds no readable symbol.
// Implementations are called from a single worker goroutine.
type Decoder interface {
	Decode(sample *Luminance, hints Hints) (Result, error)
}

// FormatLister is implemented by decoders that can only read some formats.
type FormatLister interface {
	Formats() FormatSet
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(sample *Luminance, hints Hints) (Result, error)

// Decode calls f.
func (f DecoderFunc) Decode(sample *Luminance, hints Hints) (Result, error) {
	return f(sample, hints)
}

// Hints steer a decoder.
type Hints struct {
	// Formats restricts what may be reported. Empty means any.
	Formats FormatSet

	// CharacterSet names the text encoding of byte payloads, if known.
	CharacterSet string

	// PointCallback receives candidate feature points as the decoder
	// finds them, in sample coordinates.
	PointCallback func(Point)
}

// Point is a location in sample coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Result is a decoded symbol.
type Result struct {
	Text      string    `json:"text"`
	Format    Format    `json:"format"`
	Points    []Point   `json:"points,omitempty"`
	DecodedAt time.Time `json:"decoded_at"`
}
