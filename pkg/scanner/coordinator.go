// Package scanner coordinates the frame source, the decode worker and the
// result consumer.
//
// The Coordinator requests one frame at a time. A failed decode
// immediately requests the next frame; a successful one stops the
// pipeline in StateReady until Resume. All events are handled on one loop
// goroutine, so there is never more than one decode in flight.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/debug"
	"github.com/teslashibe/go-scan/pkg/decode"
)

// DefaultShutdownTimeout bounds how long Terminate waits for the worker.
const DefaultShutdownTimeout = 500 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("scanner: already started")

	// ErrTerminated is returned by Start after Terminate.
	ErrTerminated = errors.New("scanner: terminated")
)

// FrameSource is the part of camera.Source the coordinator drives.
type FrameSource interface {
	StartStreaming()
	StopStreaming()
	RequestNextFrame(sink camera.FrameSink)
	CaptureRegionInPreview() (camera.Rect, bool)
}

// Options configure a Coordinator. The zero value is usable.
type Options struct {
	// Settings is consulted once, at Start. Nil means DefaultSettings.
	Settings func() Settings

	// Renderer is told about every state change. Optional.
	Renderer Renderer

	// Points collects candidate feature points for the overlay. Optional.
	Points *decode.PointList

	// AutoResume, when positive, resumes scanning this long after a
	// success instead of waiting for Resume.
	AutoResume time.Duration

	// ShutdownTimeout bounds the worker join in Terminate.
	// Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Coordinator is the pipeline state machine.
type Coordinator struct {
	source    FrameSource
	decoder   decode.Decoder
	consumers []ResultConsumer
	opts      Options
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	started     bool
	worker      *decode.Worker
	last        *Scan
	resumeTimer *time.Timer

	requests      atomic.Int64
	events        chan event
	quit          chan struct{}
	terminateOnce sync.Once
}

// New creates a coordinator in StateReady. Nothing runs until Start.
// A MultiConsumer is unpacked so termination is checked before each of
// its consumers.
func New(source FrameSource, decoder decode.Decoder, consumer ResultConsumer, opts Options) *Coordinator {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Coordinator{
		source:    source,
		decoder:   decoder,
		consumers: flatten(consumer),
		opts:      opts,
		logger:    slog.Default().With("component", "scanner.coordinator"),
		state:     StateReady,
		events:    make(chan event, 8),
		quit:      make(chan struct{}),
	}
}

// Start reads the settings, starts the worker and the preview, and
// requests the first frame. Cancelling ctx terminates the pipeline.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return ErrTerminated
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true

	settings := DefaultSettings()
	if c.opts.Settings != nil {
		settings = c.opts.Settings()
	}
	hints := settings.Hints(c.opts.Points)
	c.logger.Info("starting pipeline", "formats", hints.Formats.List(), "character_set", hints.CharacterSet)

	c.worker = decode.NewWorker(c.decoder, hints, c.onOutcome)
	c.worker.Start()
	go c.loop()
	c.source.StartStreaming()
	c.mu.Unlock()

	c.post(restartEvent{})

	go func() {
		select {
		case <-ctx.Done():
			c.logger.Info("context done, terminating pipeline", "error", ctx.Err())
			c.Terminate()
		case <-c.quit:
		}
	}()
	return nil
}

// Resume restarts decoding after a success. It only acts in StateReady
// on a started pipeline and reports whether it did.
func (c *Coordinator) Resume() bool {
	c.mu.Lock()
	ok := c.started && c.state == StateReady
	if ok && c.resumeTimer != nil {
		c.resumeTimer.Stop()
		c.resumeTimer = nil
	}
	c.mu.Unlock()

	if ok {
		c.post(restartEvent{})
	}
	return ok
}

// Terminate stops the pipeline for good. It is safe from any goroutine in
// any state, and later calls do nothing. Outcomes and frames that arrive
// afterwards are dropped.
func (c *Coordinator) Terminate() {
	c.terminateOnce.Do(func() {
		c.mu.Lock()
		prev := c.state
		c.state = StateTerminated
		started := c.started
		worker := c.worker
		if c.resumeTimer != nil {
			c.resumeTimer.Stop()
			c.resumeTimer = nil
		}
		c.mu.Unlock()

		close(c.quit)

		if started {
			c.source.StopStreaming()
		}
		if worker != nil {
			if err := worker.Shutdown(c.opts.ShutdownTimeout); err != nil {
				c.logger.Warn("decode worker did not stop in time", "timeout", c.opts.ShutdownTimeout, "error", err)
			}
		}
		c.drain()
		c.redraw(StateTerminated)
		c.logger.Info("pipeline terminated", "previous_state", prev, "frame_requests", c.requests.Load())
	})
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FrameRequests returns how many frames have been requested.
func (c *Coordinator) FrameRequests() int64 {
	return c.requests.Load()
}

// LastScan returns the most recent successful scan.
func (c *Coordinator) LastScan() (Scan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Scan{}, false
	}
	return *c.last, true
}

// Stats returns the worker's counters.
func (c *Coordinator) Stats() decode.Stats {
	c.mu.Lock()
	worker := c.worker
	c.mu.Unlock()
	if worker == nil {
		return decode.Stats{}
	}
	return worker.Stats()
}

// post hands e to the loop unless the pipeline has terminated.
func (c *Coordinator) post(e event) {
	select {
	case <-c.quit:
		return
	default:
	}
	select {
	case c.events <- e:
	case <-c.quit:
	}
}

// onFrame runs on the source's delivery goroutine.
func (c *Coordinator) onFrame(f camera.Frame) {
	c.post(frameEvent{frame: f})
}

// onOutcome runs on the worker goroutine.
func (c *Coordinator) onOutcome(o decode.Outcome) {
	c.post(outcomeEvent{outcome: o})
}

func (c *Coordinator) loop() {
	for {
		select {
		case <-c.quit:
			return
		case e := <-c.events:
			c.handle(e)
		}
	}
}

func (c *Coordinator) handle(e event) {
	switch e := e.(type) {
	case restartEvent:
		c.handleRestart()
	case frameEvent:
		c.handleFrame(e.frame)
	case outcomeEvent:
		switch o := e.outcome.(type) {
		case decode.Success:
			c.handleSuccess(o)
		case decode.Failure:
			c.handleFailure(o)
		}
	}
}

func (c *Coordinator) handleRestart() {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.state = StateDecoding
	c.mu.Unlock()

	c.requestFrame()
	c.redraw(StateDecoding)
}

func (c *Coordinator) handleFrame(f camera.Frame) {
	c.mu.Lock()
	decoding := c.state == StateDecoding
	worker := c.worker
	c.mu.Unlock()

	if !decoding || worker == nil {
		c.logger.Debug("dropping frame outside decoding state")
		return
	}
	region, ok := c.source.CaptureRegionInPreview()
	worker.Post(decode.DecodeRequest{Frame: f, Region: region, RegionOK: ok})
}

func (c *Coordinator) handleSuccess(s decode.Success) {
	c.mu.Lock()
	if c.state != StateDecoding {
		c.mu.Unlock()
		return
	}
	c.state = StateReady
	scan := Scan{ID: uuid.NewString(), Result: s.Result, Snapshot: s.Snapshot}
	c.last = &scan
	c.mu.Unlock()

	debug.Log("✅ %s found after %d frame requests\n", scan.Result.Format, c.requests.Load())
	c.redraw(StateReady)
	c.deliver(scan)

	if c.opts.AutoResume > 0 {
		c.mu.Lock()
		if c.state == StateReady {
			c.resumeTimer = time.AfterFunc(c.opts.AutoResume, func() { c.Resume() })
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) handleFailure(f decode.Failure) {
	c.mu.Lock()
	decoding := c.state == StateDecoding
	c.mu.Unlock()

	if !decoding {
		return
	}
	if !errors.Is(f.Err, decode.ErrNotFound) {
		c.logger.Debug("decode attempt failed", "error", f.Err)
	}
	c.requestFrame()
}

func (c *Coordinator) requestFrame() {
	c.requests.Add(1)
	c.source.RequestNextFrame(c.onFrame)
}

// deliver hands scan to each consumer in turn, stopping as soon as the
// pipeline terminates.
func (c *Coordinator) deliver(scan Scan) {
	for _, consumer := range c.consumers {
		if c.terminated() {
			c.logger.Debug("dropping scan after terminate", "id", scan.ID)
			return
		}
		consumer.HandleResult(scan)
	}
}

func (c *Coordinator) terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateTerminated
}

func (c *Coordinator) redraw(s State) {
	if c.opts.Renderer != nil {
		c.opts.Renderer.Redraw(s)
	}
}

// drain discards events queued before termination.
func (c *Coordinator) drain() {
	for {
		select {
		case e := <-c.events:
			if o, ok := e.(outcomeEvent); ok {
				c.logger.Debug("discarding queued outcome", "outcome", outcomeName(o.outcome))
			}
		default:
			return
		}
	}
}

func outcomeName(o decode.Outcome) string {
	switch o.(type) {
	case decode.Success:
		return "success"
	case decode.Failure:
		return "failure"
	}
	return "unknown"
}
