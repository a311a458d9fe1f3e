package camera

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// GocvDriver exposes OpenCV capture devices (V4L2, AVFoundation, DirectShow)
// by index. OpenCV cannot report which way a camera faces or which sizes it
// supports, so both come from configuration.
type GocvDriver struct {
	count      int
	facing     Facing
	candidates []Resolution
	framerate  int
}

// NewGocvDriver creates a driver from the capture config.
func NewGocvDriver(cfg Config) *GocvDriver {
	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &GocvDriver{
		count:      cfg.CameraCount,
		facing:     cfg.FacingValue(),
		candidates: slices.Clone(candidates),
		framerate:  cfg.Framerate,
	}
}

// Cameras lists device indices 0..count-1.
func (d *GocvDriver) Cameras() []Info {
	cameras := make([]Info, 0, d.count)
	for i := 0; i < d.count; i++ {
		cameras = append(cameras, Info{
			Index:  i,
			Facing: d.facing,
			Name:   fmt.Sprintf("opencv:%d", i),
		})
	}
	return cameras
}

// Open opens the capture device at index.
func (d *GocvDriver) Open(index int) (Device, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open video capture %d: %w", index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture %d did not open", index)
	}
	if d.framerate > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(d.framerate))
	}

	dev := &gocvDevice{
		index:      index,
		capture:    capture,
		candidates: d.candidates,
		logger:     slog.Default().With("component", "camera.gocv", "camera", index),
	}
	dev.focus = FocusModeFixed
	if capture.Get(gocv.VideoCaptureAutoFocus) > 0 {
		dev.focus = FocusModeAuto
	}
	return dev, nil
}

// gocvDevice reads frames on its own goroutine while previewing and hands
// the next one to the registered one-shot callback as a gray image.
type gocvDevice struct {
	index      int
	capture    *gocv.VideoCapture
	candidates []Resolution
	logger     *slog.Logger

	mu       sync.Mutex
	focus    FocusMode
	callback func(Frame)
	stop     chan struct{}
	done     chan struct{}
}

func (d *gocvDevice) Parameters() (*Parameters, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrNotOpen
	}
	return &Parameters{
		PreviewSize: Resolution{
			Width:  int(d.capture.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(d.capture.Get(gocv.VideoCaptureFrameHeight)),
		},
		SupportedPreviewSizes: slices.Clone(d.candidates),
		FocusMode:             d.focus,
		SupportedFocusModes:   []FocusMode{FocusModeAuto, FocusModeFixed},
	}, nil
}

func (d *gocvDevice) SetParameters(p *Parameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return ErrNotOpen
	}
	if p.PreviewSize.IsZero() {
		return fmt.Errorf("%w: no preview size", ErrParametersRejected)
	}
	if p.FocusMode != "" && p.FocusMode != FocusModeAuto && p.FocusMode != FocusModeFixed {
		return fmt.Errorf("%w: focus mode %s", ErrParametersRejected, p.FocusMode)
	}

	d.capture.Set(gocv.VideoCaptureFrameWidth, float64(p.PreviewSize.Width))
	d.capture.Set(gocv.VideoCaptureFrameHeight, float64(p.PreviewSize.Height))
	switch p.FocusMode {
	case FocusModeAuto:
		d.capture.Set(gocv.VideoCaptureAutoFocus, 1)
		d.focus = FocusModeAuto
	case FocusModeFixed:
		d.capture.Set(gocv.VideoCaptureAutoFocus, 0)
		d.focus = FocusModeFixed
	}
	return nil
}

// BindSurface is a no-op: previews are not drawn by this driver.
func (d *gocvDevice) BindSurface(Surface) error {
	return nil
}

func (d *gocvDevice) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return ErrNotOpen
	}
	if d.stop != nil {
		return nil
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.readLoop(d.stop, d.done)
	return nil
}

func (d *gocvDevice) StopPreview() error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.callback = nil
	d.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (d *gocvDevice) SetOneShotCallback(fn func(Frame)) {
	d.mu.Lock()
	d.callback = fn
	d.mu.Unlock()
}

func (d *gocvDevice) Close() error {
	if err := d.StopPreview(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// takeCallback clears and returns the pending callback.
func (d *gocvDevice) takeCallback() func(Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn := d.callback
	d.callback = nil
	return fn
}

func (d *gocvDevice) readLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	img := gocv.NewMat()
	defer img.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if ok := d.capture.Read(&img); !ok || img.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		fn := d.takeCallback()
		if fn == nil {
			continue
		}

		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		frame := Frame{
			Data:   gray.ToBytes(),
			Width:  gray.Cols(),
			Height: gray.Rows(),
		}
		// Delivered off this goroutine so a slow sink never stalls capture
		// or StopPreview.
		go fn(frame)
	}
}
