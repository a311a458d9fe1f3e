package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for the camera package.
var (
	// ErrNoCamera indicates the driver reports no cameras at all.
	ErrNoCamera = errors.New("camera: no cameras available")

	// ErrCameraNotFound indicates an explicitly requested camera does not exist.
	ErrCameraNotFound = errors.New("camera: requested camera does not exist")

	// ErrParametersRejected indicates the device refused a configuration.
	ErrParametersRejected = errors.New("camera: parameters rejected")

	// ErrNoSupportedResolutions indicates the device listed no preview sizes.
	ErrNoSupportedResolutions = errors.New("camera: no supported preview resolutions")

	// ErrNotOpen indicates an operation needs an open camera.
	ErrNotOpen = errors.New("camera: not open")
)

// OpenError is returned by Source.Open when the hardware cannot be acquired
// or bound. It is the only camera error that is fatal to a scanning session.
type OpenError struct {
	// Camera is the index that was being opened, or -1 if none was chosen.
	Camera int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	if e.Camera < 0 {
		return fmt.Sprintf("camera: open failed: %v", e.Err)
	}
	return fmt.Sprintf("camera: open #%d failed: %v", e.Camera, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// IsOpenError reports whether err is (or wraps) an OpenError.
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}
