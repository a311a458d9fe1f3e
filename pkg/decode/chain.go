package decode

import (
	"errors"
	"log/slog"
)

// Chain tries multiple decoders in order until one finds a symbol.
type Chain struct {
	decoders []Decoder
	logger   *slog.Logger
}

// NewChain creates a decoder chain.
// At least one decoder is required.
func NewChain(decoders ...Decoder) (*Chain, error) {
	if len(decoders) == 0 {
		return nil, ErrNoDecoders
	}
	return &Chain{
		decoders: decoders,
		logger:   slog.Default().With("component", "decode.chain"),
	}, nil
}

// Formats implements FormatLister. It returns nil, meaning any format,
// when some decoder in the chain does not list its formats.
func (c *Chain) Formats() FormatSet {
	s := FormatSet{}
	for _, d := range c.decoders {
		fl, ok := d.(FormatLister)
		if !ok {
			return nil
		}
		s.Add(fl.Formats().List()...)
	}
	return s
}

// Decode tries each decoder until one succeeds. ErrNotFound moves on
// quietly; any other error is logged and collected. If nothing decodes
// and nothing failed, the result is ErrNotFound.
func (c *Chain) Decode(sample *Luminance, hints Hints) (Result, error) {
	var errs []error

	for i, d := range c.decoders {
		res, err := d.Decode(sample, hints)
		if err == nil {
			if i > 0 {
				c.logger.Debug("fallback decoder succeeded", "decoder_index", i)
			}
			return res, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}

		errs = append(errs, err)
		c.logger.Warn("decoder failed, trying next",
			"decoder_index", i,
			"error", err,
		)
	}

	if len(errs) == 0 {
		return Result{}, ErrNotFound
	}
	return Result{}, &ChainError{Errors: errs}
}
