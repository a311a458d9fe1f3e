package camera

import (
	"errors"
	"log/slog"
	"sync"
)

// Options configure a Source.
type Options struct {
	// RequestedCamera is an explicit camera index, or -1 for automatic
	// selection (first back-facing camera, else camera 0).
	RequestedCamera int

	// Display is the screen size the capture region is laid out on.
	Display Resolution

	// Focus is the focus preference applied at configuration time.
	Focus FocusPreference

	// Orientation is the preview rotation requested from devices that
	// support it.
	Orientation int
}

// DisplayProfile is the resolution pair negotiated for one open session.
type DisplayProfile struct {
	Screen      Resolution `json:"screen"`
	Camera      Resolution `json:"camera"`
	CameraKnown bool       `json:"camera_known"`
}

// Source owns the camera device. All methods are safe for concurrent use;
// state changes are serialized so hardware calls never interleave.
type Source struct {
	driver Driver
	opts   Options
	logger *slog.Logger

	mu              sync.Mutex
	device          Device
	openIndex       int
	orienter        Orienter
	initialized     bool
	streaming       bool
	profile         DisplayProfile
	region          *Rect
	regionInPreview *Rect
	sink            FrameSink
}

// NewSource creates a Source over driver. Nothing is opened until Open.
func NewSource(driver Driver, opts Options) *Source {
	if opts.Focus == "" {
		opts.Focus = FocusAuto
	}
	return &Source{
		driver:    driver,
		opts:      opts,
		logger:    slog.Default().With("component", "camera.source"),
		openIndex: -1,
	}
}

// SetRequestedCamera selects the camera for the next Open.
// Pass -1 to restore automatic selection.
func (s *Source) SetRequestedCamera(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.RequestedCamera = index
}

// Open acquires the camera, binds it to surface and configures it.
//
// Resolution negotiation runs on the first open only. Configuration is
// attempted on every open; if the device rejects it, the pre-configuration
// parameters are restored and a safe-mode configuration is tried, and if
// that fails too the camera is used unconfigured. Only acquisition and
// binding failures are returned, as *OpenError.
func (s *Source) Open(surface Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		device, index, err := s.acquire()
		if err != nil {
			return err
		}
		s.device = device
		s.openIndex = index
		s.orienter, _ = device.(Orienter)
		if s.orienter == nil {
			s.logger.Info("device cannot rotate its preview, leaving orientation unchanged", "camera", index)
		}
	}

	if err := s.device.BindSurface(surface); err != nil {
		return &OpenError{Camera: s.openIndex, Err: err}
	}

	if !s.initialized {
		s.initialized = true
		s.initFromParameters()
	}

	snapshot, err := s.device.Parameters()
	if err != nil {
		s.logger.Warn("could not snapshot camera parameters", "error", err)
		snapshot = nil
	}

	if err := s.configure(false); err != nil {
		s.logger.Warn("camera rejected parameters, setting only minimal safe-mode parameters", "error", err)
		if snapshot != nil {
			s.logger.Info("resetting to saved camera parameters", "params", snapshot)
			err = s.device.SetParameters(snapshot)
			if err == nil {
				err = s.configure(true)
			}
			if err != nil {
				s.logger.Warn("camera rejected even safe-mode parameters, no configuration", "error", err)
			}
		}
	}

	return nil
}

// acquire opens the requested camera, or the preferred one when no
// explicit request was made.
func (s *Source) acquire() (Device, int, error) {
	cameras := s.driver.Cameras()
	if len(cameras) == 0 {
		s.logger.Warn("no cameras")
		return nil, -1, &OpenError{Camera: -1, Err: ErrNoCamera}
	}

	requested := s.opts.RequestedCamera
	explicit := requested >= 0

	index := -1
	if explicit {
		for _, c := range cameras {
			if c.Index == requested {
				index = c.Index
				break
			}
		}
		if index < 0 {
			s.logger.Warn("requested camera does not exist", "camera", requested)
			return nil, requested, &OpenError{Camera: requested, Err: ErrCameraNotFound}
		}
	} else {
		for _, c := range cameras {
			if c.Facing == FacingBack {
				index = c.Index
				break
			}
		}
		if index < 0 {
			index = cameras[0].Index
			s.logger.Info("no camera facing back, using first camera", "camera", index)
		}
	}

	s.logger.Info("opening camera", "camera", index)
	device, err := s.driver.Open(index)
	if err != nil {
		return nil, index, &OpenError{Camera: index, Err: err}
	}
	if device == nil {
		return nil, index, &OpenError{Camera: index, Err: ErrNoCamera}
	}
	return device, index, nil
}

// initFromParameters records the screen size and negotiates the preview
// resolution once per Source.
func (s *Source) initFromParameters() {
	s.profile.Screen = s.opts.Display
	s.logger.Info("screen resolution", "size", s.profile.Screen)

	params, err := s.device.Parameters()
	if err != nil || params == nil {
		s.logger.Warn("no camera parameters available, camera resolution unknown", "error", err)
		return
	}

	chosen, err := SelectPreviewSize(params.SupportedPreviewSizes, s.profile.Screen.Landscape(), params.PreviewSize)
	if errors.Is(err, ErrNoSupportedResolutions) {
		chosen = params.PreviewSize
	}
	if chosen.IsZero() {
		s.logger.Warn("parameters contained no preview size")
		return
	}
	s.profile.Camera = chosen
	s.profile.CameraKnown = true
	s.logger.Info("camera resolution", "size", chosen)
}

// configure applies focus, preview size and orientation.
func (s *Source) configure(safeMode bool) error {
	params, err := s.device.Parameters()
	if err != nil || params == nil {
		s.logger.Warn("device error: no camera parameters are available, proceeding without configuration")
		return nil
	}
	if safeMode {
		s.logger.Warn("in camera config safe mode, most settings will not be honored")
	}

	negotiateFocus(params, s.opts.Focus, safeMode)
	if s.profile.CameraKnown {
		params.PreviewSize = s.profile.Camera
	}
	if s.orienter != nil {
		if err := s.orienter.SetDisplayOrientation(s.opts.Orientation); err != nil {
			s.logger.Warn("could not set display orientation", "degrees", s.opts.Orientation, "error", err)
		}
	}

	if err := s.device.SetParameters(params); err != nil {
		return err
	}

	after, err := s.device.Parameters()
	if err == nil && after != nil && !after.PreviewSize.IsZero() && s.profile.CameraKnown && after.PreviewSize != s.profile.Camera {
		s.logger.Warn("camera accepted preview size but reports another",
			"requested", s.profile.Camera,
			"actual", after.PreviewSize,
		)
		s.profile.Camera = after.PreviewSize
		s.regionInPreview = nil
	}
	return nil
}

// IsOpen reports whether a device is held.
func (s *Source) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device != nil
}

// Close releases the device and forgets cached regions. Safe to call
// repeatedly.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return
	}
	if s.streaming {
		s.stopLocked()
	}
	if err := s.device.Close(); err != nil {
		s.logger.Warn("camera close failed", "error", err)
	}
	s.device = nil
	s.orienter = nil
	s.openIndex = -1
	s.region = nil
	s.regionInPreview = nil
}

// StartStreaming starts the preview. Does nothing if already streaming or
// not open.
func (s *Source) StartStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil || s.streaming {
		return
	}
	if err := s.device.StartPreview(); err != nil {
		s.logger.Warn("start preview failed", "error", err)
		return
	}
	s.streaming = true
}

// StopStreaming stops the preview and cancels any pending frame request.
func (s *Source) StopStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil || !s.streaming {
		return
	}
	s.stopLocked()
}

func (s *Source) stopLocked() {
	if err := s.device.StopPreview(); err != nil {
		s.logger.Warn("stop preview failed", "error", err)
	}
	s.device.SetOneShotCallback(nil)
	s.sink = nil
	s.streaming = false
}

// IsStreaming reports whether the preview is running.
func (s *Source) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// RequestNextFrame registers sink for the next preview frame. The
// registration clears itself after one delivery, and is dropped if
// streaming stops first. Does nothing while not streaming.
func (s *Source) RequestNextFrame(sink FrameSink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil || !s.streaming || sink == nil {
		return
	}
	s.sink = sink
	s.device.SetOneShotCallback(s.onPreviewFrame)
}

// onPreviewFrame runs on the device's goroutine.
func (s *Source) onPreviewFrame(f Frame) {
	s.mu.Lock()
	sink := s.sink
	s.sink = nil
	camera := s.profile.Camera
	s.mu.Unlock()

	if sink == nil {
		return
	}
	if f.Width == 0 || f.Height == 0 {
		f.Width, f.Height = camera.Width, camera.Height
	}
	sink(f)
}

// Profile returns the negotiated resolutions.
func (s *Source) Profile() DisplayProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// CaptureRegion returns the scanning window in screen pixels.
// False means the camera is not open or the screen size is unknown.
func (s *Source) CaptureRegion() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureRegionLocked()
}

func (s *Source) captureRegionLocked() (Rect, bool) {
	if s.region != nil {
		return *s.region, true
	}
	if s.device == nil || s.profile.Screen.IsZero() {
		return Rect{}, false
	}
	r := ComputeCaptureRegion(s.profile.Screen)
	s.logger.Debug("calculated capture region", "rect", r)
	s.region = &r
	return r, true
}

// CaptureRegionInPreview returns the scanning window in camera preview
// pixels. False means it is not ready yet; callers must not substitute
// a default.
func (s *Source) CaptureRegionInPreview() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.regionInPreview != nil {
		return *s.regionInPreview, true
	}
	region, ok := s.captureRegionLocked()
	if !ok || !s.profile.CameraKnown {
		return Rect{}, false
	}
	mapped, ok := MapToPreview(region, s.profile.Camera, s.profile.Screen)
	if !ok {
		return Rect{}, false
	}
	s.regionInPreview = &mapped
	return mapped, true
}
