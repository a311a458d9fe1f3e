package decode

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/debug"
)

// Message is something the worker's inbound queue accepts:
// DecodeRequest, or the shutdown message sent by Shutdown.
type Message interface {
	isMessage()
}

// DecodeRequest asks for one decode attempt. RegionOK false means the
// capture region could not be expressed in preview coordinates yet.
type DecodeRequest struct {
	Frame    camera.Frame
	Region   camera.Rect
	RegionOK bool
}

type shutdownMessage struct{}

func (DecodeRequest) isMessage()   {}
func (shutdownMessage) isMessage() {}

// Outcome is the answer to one DecodeRequest: Success or Failure.
type Outcome interface {
	isOutcome()
}

// Success carries a decoded symbol and, when encoding worked, a thumbnail
// of the sample it came from.
type Success struct {
	Result   Result
	Snapshot *Snapshot
}

// Failure means the attempt found nothing or could not run.
type Failure struct {
	Err error
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// OutcomeSink receives outcomes on the worker goroutine.
type OutcomeSink func(Outcome)

// Stats counts worker activity.
type Stats struct {
	Attempts  int64 `json:"attempts"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
}

// Worker decodes frames on a dedicated goroutine, one request at a time.
type Worker struct {
	decoder Decoder
	hints   Hints
	sink    OutcomeSink
	logger  *slog.Logger

	startOnce sync.Once
	started   atomic.Bool
	ready     chan struct{}
	inbound   chan Message
	done      chan struct{}

	attempts  atomic.Int64
	successes atomic.Int64
}

// NewWorker creates a worker. Nothing runs until Start.
func NewWorker(decoder Decoder, hints Hints, sink OutcomeSink) *Worker {
	return &Worker{
		decoder: decoder,
		hints:   hints,
		sink:    sink,
		logger:  slog.Default().With("component", "decode.worker"),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine. Later calls do nothing.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.run()
	})
}

// Inbound returns the worker's queue, blocking until the goroutine has
// created it.
func (w *Worker) Inbound() chan<- Message {
	<-w.ready
	return w.inbound
}

// Post queues msg. Returns false if the worker was never started or has
// exited.
func (w *Worker) Post(msg Message) bool {
	if !w.started.Load() || w.exited() {
		return false
	}
	select {
	case w.Inbound() <- msg:
		return true
	case <-w.done:
		return false
	}
}

// Shutdown asks the worker to exit and waits up to timeout for it.
// Requests still queued behind the shutdown are dropped.
func (w *Worker) Shutdown(timeout time.Duration) error {
	if !w.started.Load() || w.exited() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case w.Inbound() <- shutdownMessage{}:
	case <-w.done:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}

	select {
	case <-w.done:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}

// Done is closed when the worker goroutine exits.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Stats returns attempt counters.
func (w *Worker) Stats() Stats {
	attempts := w.attempts.Load()
	successes := w.successes.Load()
	return Stats{Attempts: attempts, Successes: successes, Failures: attempts - successes}
}

func (w *Worker) run() {
	defer close(w.done)

	w.inbound = make(chan Message, 1)
	close(w.ready)

	for msg := range w.inbound {
		switch m := msg.(type) {
		case shutdownMessage:
			w.logger.Debug("worker stopping")
			return
		case DecodeRequest:
			outcome := w.decode(m)
			if w.sink != nil {
				w.sink(outcome)
			}
		}
	}
}

func (w *Worker) decode(req DecodeRequest) Outcome {
	w.attempts.Add(1)

	if !req.RegionOK {
		return Failure{Err: ErrRegionNotReady}
	}
	sample, err := SampleFrame(req.Frame, req.Region)
	if err != nil {
		w.logger.Warn("could not sample frame", "region", req.Region, "frame_width", req.Frame.Width, "frame_height", req.Frame.Height, "error", err)
		return Failure{Err: err}
	}

	start := time.Now()
	result, err := w.decoder.Decode(sample, w.hints)
	elapsed := time.Since(start)
	if err != nil {
		debug.FrameLog("🔍 no symbol in %dx%d sample (%v): %v\n", sample.Width(), sample.Height(), elapsed, err)
		return Failure{Err: err}
	}
	if result.DecodedAt.IsZero() {
		result.DecodedAt = time.Now()
	}
	w.successes.Add(1)
	w.logger.Info("found barcode", "format", result.Format, "elapsed_ms", elapsed.Milliseconds())

	snapshot, err := NewSnapshot(sample)
	if err != nil {
		w.logger.Warn("thumbnail encoding failed", "error", err)
		snapshot = nil
	}
	return Success{Result: result, Snapshot: snapshot}
}
