package camera

import (
	"errors"
	"sync"
	"time"
)

// MockDriver implements Driver for testing and for running without
// hardware.
type MockDriver struct {
	// CameraList is returned by Cameras.
	CameraList []Info

	// OpenFunc is called when Open is invoked.
	OpenFunc func(index int) (Device, error)

	mu     sync.Mutex
	opened []int
}

// NewMockDriver creates a driver with one back camera backed by device.
func NewMockDriver(device *MockDevice) *MockDriver {
	return &MockDriver{
		CameraList: []Info{{Index: 0, Facing: FacingBack, Name: "mock"}},
		OpenFunc: func(int) (Device, error) {
			return device, nil
		},
	}
}

// Cameras returns CameraList.
func (d *MockDriver) Cameras() []Info {
	return d.CameraList
}

// Open records the index and calls OpenFunc.
func (d *MockDriver) Open(index int) (Device, error) {
	d.mu.Lock()
	d.opened = append(d.opened, index)
	d.mu.Unlock()
	if d.OpenFunc == nil {
		return nil, errors.New("mock: no OpenFunc")
	}
	return d.OpenFunc(index)
}

// Opened returns the indices passed to Open, in order.
func (d *MockDriver) Opened() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.opened...)
}

// MockDevice implements Device and Orienter for testing.
type MockDevice struct {
	// RejectFunc decides whether SetParameters fails. attempt counts calls
	// starting at 1.
	RejectFunc func(p *Parameters, attempt int) error

	// ReportedSize, if set, replaces the preview size after SetParameters,
	// like hardware that silently picks another size.
	ReportedSize Resolution

	// Generate, if set, is called every Interval while previewing and the
	// frame is offered to the pending callback.
	Generate func() Frame
	Interval time.Duration

	mu          sync.Mutex
	params      Parameters
	applied     []Parameters
	attempts    int
	orientation int
	surface     Surface
	previewing  bool
	closed      bool
	callback    func(Frame)
	stop        chan struct{}
}

// NewMockDevice creates a device with the given supported sizes and
// current preview size.
func NewMockDevice(supported []Resolution, current Resolution) *MockDevice {
	return &MockDevice{
		params: Parameters{
			PreviewSize:           current,
			SupportedPreviewSizes: append([]Resolution(nil), supported...),
			FocusMode:             FocusModeFixed,
			SupportedFocusModes:   []FocusMode{FocusModeAuto, FocusModeContinuousVideo, FocusModeFixed},
		},
		Interval: 33 * time.Millisecond,
	}
}

func (d *MockDevice) Parameters() (*Parameters, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.Clone(), nil
}

func (d *MockDevice) SetParameters(p *Parameters) error {
	d.mu.Lock()
	d.attempts++
	attempt := d.attempts
	reject := d.RejectFunc
	d.mu.Unlock()

	if reject != nil {
		if err := reject(p, attempt); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = *p.Clone()
	if !d.ReportedSize.IsZero() {
		d.params.PreviewSize = d.ReportedSize
	}
	d.applied = append(d.applied, *p.Clone())
	return nil
}

// Applied returns every accepted configuration, oldest first.
func (d *MockDevice) Applied() []Parameters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Parameters(nil), d.applied...)
}

// Attempts returns how many times SetParameters was called.
func (d *MockDevice) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *MockDevice) SetDisplayOrientation(degrees int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orientation = degrees
	return nil
}

// Orientation returns the last requested display orientation.
func (d *MockDevice) Orientation() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orientation
}

func (d *MockDevice) BindSurface(s Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface = s
	return nil
}

func (d *MockDevice) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.previewing {
		return nil
	}
	d.previewing = true
	if d.Generate != nil {
		d.stop = make(chan struct{})
		go d.generateLoop(d.stop)
	}
	return nil
}

func (d *MockDevice) StopPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previewing = false
	d.callback = nil
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	return nil
}

// Previewing reports whether the preview is running.
func (d *MockDevice) Previewing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previewing
}

func (d *MockDevice) SetOneShotCallback(fn func(Frame)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = fn
}

// Pending reports whether a one-shot callback is registered.
func (d *MockDevice) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.callback != nil
}

// Emit delivers f to the pending callback on the caller's goroutine.
// Returns false if nothing was waiting.
func (d *MockDevice) Emit(f Frame) bool {
	d.mu.Lock()
	fn := d.callback
	d.callback = nil
	previewing := d.previewing
	d.mu.Unlock()

	if fn == nil || !previewing {
		return false
	}
	fn(f)
	return true
}

func (d *MockDevice) Close() error {
	d.StopPreview()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *MockDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *MockDevice) generateLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if d.Pending() {
				d.Emit(d.Generate())
			}
		}
	}
}
