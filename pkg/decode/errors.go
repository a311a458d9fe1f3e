package decode

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotFound is returned when no symbol was found in a sample.
	// It is the normal result of most attempts.
	ErrNotFound = errors.New("decode: no symbol found")

	// ErrRegionNotReady is reported when a frame arrives before the capture
	// region can be expressed in preview coordinates.
	ErrRegionNotReady = errors.New("decode: capture region not ready")

	// ErrRegionOutOfBounds is returned when a crop does not fit the frame.
	ErrRegionOutOfBounds = errors.New("decode: region outside frame")

	// ErrShortFrame is returned when a frame holds fewer bytes than its
	// luminance plane needs.
	ErrShortFrame = errors.New("decode: frame buffer too short")

	// ErrNoDecoders is returned when a chain is built without decoders.
	ErrNoDecoders = errors.New("decode: no decoders")

	// ErrNoServedFormats is returned when none of the requested formats
	// has a decoder.
	ErrNoServedFormats = errors.New("decode: no decoder for requested formats")

	// ErrShutdownTimeout is returned when the worker does not exit in time.
	ErrShutdownTimeout = errors.New("decode: worker shutdown timed out")
)

// ChainError aggregates the errors of a chain where no decoder found a
// symbol and at least one failed outright.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "decode chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("decode chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("decode chain: %d decoders failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
