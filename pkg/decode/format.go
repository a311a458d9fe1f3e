package decode

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Format is a barcode symbology.
type Format string

const (
	FormatUPCA        Format = "UPC_A"
	FormatUPCE        Format = "UPC_E"
	FormatEAN8        Format = "EAN_8"
	FormatEAN13       Format = "EAN_13"
	FormatRSS14       Format = "RSS_14"
	FormatRSSExpanded Format = "RSS_EXPANDED"
	FormatCode39      Format = "CODE_39"
	FormatCode93      Format = "CODE_93"
	FormatCode128     Format = "CODE_128"
	FormatITF         Format = "ITF"
	FormatCodabar     Format = "CODABAR"
	FormatQRCode      Format = "QR_CODE"
	FormatDataMatrix  Format = "DATA_MATRIX"
	FormatAztec       Format = "AZTEC"
	FormatPDF417      Format = "PDF_417"
)

// Format groups, selectable as a unit in FormatPrefs.
var (
	ProductFormats    = []Format{FormatUPCA, FormatUPCE, FormatEAN13, FormatEAN8, FormatRSS14, FormatRSSExpanded}
	IndustrialFormats = []Format{FormatCode39, FormatCode93, FormatCode128, FormatITF, FormatCodabar}
	QRCodeFormats     = []Format{FormatQRCode}
	DataMatrixFormats = []Format{FormatDataMatrix}
	AztecFormats      = []Format{FormatAztec}
	PDF417Formats     = []Format{FormatPDF417}
)

// FormatSet is an unordered set of formats. A nil or empty set places no
// restriction on decoders.
type FormatSet map[Format]struct{}

// NewFormatSet returns a set holding formats.
func NewFormatSet(formats ...Format) FormatSet {
	s := make(FormatSet, len(formats))
	s.Add(formats...)
	return s
}

// Add inserts formats.
func (s FormatSet) Add(formats ...Format) {
	for _, f := range formats {
		s[f] = struct{}{}
	}
}

// Contains reports whether f is in the set.
func (s FormatSet) Contains(f Format) bool {
	_, ok := s[f]
	return ok
}

// Allows reports whether a decoder may report f: an empty set allows
// everything.
func (s FormatSet) Allows(f Format) bool {
	return len(s) == 0 || s.Contains(f)
}

// List returns the formats sorted by name.
func (s FormatSet) List() []Format {
	out := make([]Format, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s FormatSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a list of format names.
func (s *FormatSet) UnmarshalJSON(data []byte) error {
	var list []Format
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewFormatSet(list...)
	return nil
}

// FormatPrefs selects format groups the way the settings screen offers them.
type FormatPrefs struct {
	Product    bool `json:"product"`
	Industrial bool `json:"industrial"`
	QRCode     bool `json:"qr_code"`
	DataMatrix bool `json:"data_matrix"`
	Aztec      bool `json:"aztec"`
	PDF417     bool `json:"pdf417"`
}

// DefaultFormatPrefs enables the common 1D and 2D groups. Aztec and PDF417
// are off because they slow down every attempt.
func DefaultFormatPrefs() FormatPrefs {
	return FormatPrefs{
		Product:    true,
		Industrial: true,
		QRCode:     true,
		DataMatrix: true,
	}
}

// Formats expands the enabled groups.
func (p FormatPrefs) Formats() FormatSet {
	s := FormatSet{}
	if p.Product {
		s.Add(ProductFormats...)
	}
	if p.Industrial {
		s.Add(IndustrialFormats...)
	}
	if p.QRCode {
		s.Add(QRCodeFormats...)
	}
	if p.DataMatrix {
		s.Add(DataMatrixFormats...)
	}
	if p.Aztec {
		s.Add(AztecFormats...)
	}
	if p.PDF417 {
		s.Add(PDF417Formats...)
	}
	return s
}

// ResolveFormats returns explicit when it is non-empty, else the formats
// enabled in prefs.
func ResolveFormats(explicit FormatSet, prefs FormatPrefs) FormatSet {
	if len(explicit) > 0 {
		return explicit
	}
	return prefs.Formats()
}

// Unserved returns the formats in want that decoder cannot read. A decoder
// that does not implement FormatLister, or an empty want, serves
// everything.
func Unserved(want FormatSet, decoder Decoder) FormatSet {
	fl, ok := decoder.(FormatLister)
	if !ok || len(want) == 0 {
		return nil
	}
	served := fl.Formats()
	if served == nil {
		return nil
	}
	out := FormatSet{}
	for f := range want {
		if !served.Contains(f) {
			out.Add(f)
		}
	}
	return out
}

// ParseFormats parses a comma-separated list of format names such as
// "QR_CODE,EAN_13". Names are case-insensitive. An empty string yields an
// empty set.
func ParseFormats(list string) (FormatSet, error) {
	known := FormatPrefs{true, true, true, true, true, true}.Formats()
	s := FormatSet{}
	for _, name := range strings.Split(list, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f := Format(name)
		if !known.Contains(f) {
			return nil, fmt.Errorf("decode: unknown format %q", name)
		}
		s.Add(f)
	}
	return s, nil
}
