package camera

import "slices"

// Facing tells which way a camera points.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
	FacingExternal
)

func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	default:
		return "external"
	}
}

// Info describes one camera known to a Driver.
type Info struct {
	Index  int    `json:"index"`
	Facing Facing `json:"facing"`
	Name   string `json:"name"`
}

// Driver enumerates and opens camera hardware.
type Driver interface {
	// Cameras lists the available cameras, ordered by index.
	Cameras() []Info

	// Open acquires exclusive use of the camera at index.
	Open(index int) (Device, error)
}

// Surface is the opaque rendering target a preview is bound to.
// The scanning core never draws on it.
type Surface any

// Device is an opened camera. Implementations deliver frames on their own
// goroutine.
type Device interface {
	// Parameters returns a snapshot of the current configuration.
	// The caller owns the returned value.
	Parameters() (*Parameters, error)

	// SetParameters applies a configuration. A device may refuse with
	// ErrParametersRejected.
	SetParameters(p *Parameters) error

	// BindSurface attaches the preview to a rendering target.
	BindSurface(s Surface) error

	StartPreview() error
	StopPreview() error

	// SetOneShotCallback registers fn to receive the next preview frame
	// and then be cleared. A nil fn cancels the registration.
	SetOneShotCallback(fn func(Frame))

	// Close releases the hardware.
	Close() error
}

// Orienter is an optional Device capability for rotating the preview
// relative to the display. Devices without it are left unrotated.
type Orienter interface {
	SetDisplayOrientation(degrees int) error
}

// FocusMode is a hardware focus mode name.
type FocusMode string

const (
	FocusModeAuto              FocusMode = "auto"
	FocusModeContinuousVideo   FocusMode = "continuous-video"
	FocusModeContinuousPicture FocusMode = "continuous-picture"
	FocusModeMacro             FocusMode = "macro"
	FocusModeEDOF              FocusMode = "edof"
	FocusModeFixed             FocusMode = "fixed"
	FocusModeInfinity          FocusMode = "infinity"
)

// Parameters is a device configuration snapshot.
type Parameters struct {
	PreviewSize           Resolution   `json:"preview_size"`
	SupportedPreviewSizes []Resolution `json:"supported_preview_sizes"`
	FocusMode             FocusMode    `json:"focus_mode"`
	SupportedFocusModes   []FocusMode  `json:"supported_focus_modes"`
}

// Clone returns a deep copy, used to restore a device after it rejects
// a configuration.
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	c := *p
	c.SupportedPreviewSizes = slices.Clone(p.SupportedPreviewSizes)
	c.SupportedFocusModes = slices.Clone(p.SupportedFocusModes)
	return &c
}

// Frame is one preview capture. Data starts with a Width*Height luminance
// plane (the Y plane of NV21, or a plain gray image); any chroma planes that
// follow are ignored.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// FrameSink receives a single frame.
type FrameSink func(Frame)
