package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-scan/internal/log"
	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/debug"
	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/history"
	"github.com/teslashibe/go-scan/pkg/scanner"
	"github.com/teslashibe/go-scan/pkg/web"
)

// App is the scanner application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// Shared across camera sessions
	manager   *camera.Manager
	decoder   decode.Decoder
	closers   []io.Closer
	points    *decode.PointList
	history   *history.JSONStore
	webServer *web.Server

	// Current camera session
	mu       sync.Mutex
	source   *camera.Source
	pipeline *scanner.Coordinator

	// Camera configs waiting to be applied by Run
	reopen chan camera.Config

	// newDriver picks the camera backend for a session
	newDriver func(camera.Config) camera.Driver
}

// New creates a new scanner application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	a := &App{
		config:    cfg,
		logger:    log.Component("app"),
		points:    &decode.PointList{},
		reopen:    make(chan camera.Config, 1),
		newDriver: func(c camera.Config) camera.Driver { return camera.NewGocvDriver(c) },
	}
	if cfg.Mock {
		a.newDriver = func(camera.Config) camera.Driver { return mockDriver() }
	}
	return a, nil
}

// Init opens the camera and builds the decoder, history and dashboard.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("📷 go-scan - Live Barcode Scanner")
	fmt.Println("=================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}
	if a.config.Mock {
		fmt.Println("🧪 Mock camera and decoder")
	}

	manager, err := camera.NewManagerWithConfig(a.config.Camera)
	if err != nil {
		return fmt.Errorf("camera config: %w", err)
	}
	a.manager = manager

	if err := a.initDecoder(); err != nil {
		return fmt.Errorf("decoder init: %w", err)
	}

	if a.config.HistoryPath != "" {
		store, err := history.NewJSONStore(a.config.HistoryPath)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		a.history = store
		fmt.Printf("📚 History: %s (%d scans)\n", store.Path(), store.Count())
	}

	opts := web.Options{
		Geometry: a,
		Manager:  a.manager,
		Points:   a.points,
	}
	if a.history != nil {
		opts.History = a.history
	}
	a.webServer = web.NewServer(a.config.Port, opts)

	fmt.Print("📹 Opening camera... ")
	src, err := a.openSource(a.config.Camera)
	if err != nil {
		fmt.Println("❌")
		return err
	}
	a.source = src
	profile := src.Profile()
	fmt.Printf("✅ %s preview for %s screen\n", profile.Camera, profile.Screen)

	// Edits from the dashboard apply to the next session
	a.manager.OnConfigChange = a.queueReopen

	return nil
}

// Run starts the dashboard and the pipeline.
// Blocks until context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.webServer.StartAsync()
	fmt.Printf("🌐 Dashboard: http://localhost:%s\n", a.config.Port)

	if err := a.startPipeline(ctx); err != nil {
		return err
	}
	fmt.Println("\n🔍 Scanning! Hold a barcode inside the capture window...")
	fmt.Println("   (Ctrl+C to exit)")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-a.reopen:
			if err := a.restart(ctx, cfg); err != nil {
				a.logger.Error("camera restart failed", "error", err)
			}
		}
	}
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	a.mu.Lock()
	pipeline, source := a.pipeline, a.source
	a.mu.Unlock()

	if pipeline != nil {
		pipeline.Terminate()
	}
	if source != nil {
		source.Close()
	}
	for _, c := range a.closers {
		c.Close()
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
}

// Pipeline returns the current coordinator, or nil before Run.
func (a *App) Pipeline() *scanner.Coordinator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipeline
}

// Manager returns the camera config manager.
func (a *App) Manager() *camera.Manager {
	return a.manager
}

// History returns the scan history, or nil when disabled.
func (a *App) History() *history.JSONStore {
	return a.history
}

// Profile implements web.Geometry for the current session.
func (a *App) Profile() camera.DisplayProfile {
	if src := a.currentSource(); src != nil {
		return src.Profile()
	}
	return camera.DisplayProfile{}
}

// CaptureRegion implements web.Geometry for the current session.
func (a *App) CaptureRegion() (camera.Rect, bool) {
	if src := a.currentSource(); src != nil {
		return src.CaptureRegion()
	}
	return camera.Rect{}, false
}

// CaptureRegionInPreview implements web.Geometry for the current session.
func (a *App) CaptureRegionInPreview() (camera.Rect, bool) {
	if src := a.currentSource(); src != nil {
		return src.CaptureRegionInPreview()
	}
	return camera.Rect{}, false
}

func (a *App) currentSource() *camera.Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// initDecoder builds the decoder shared by every session.
func (a *App) initDecoder() error {
	if a.config.Mock {
		a.decoder = decode.EveryNth(a.config.MockEvery, a.config.MockText, decode.FormatQRCode)
		return nil
	}

	qr := decode.NewQRDecoder()
	chain, err := decode.NewChain(qr, decode.NewZXingDecoder())
	if err != nil {
		qr.Close()
		return err
	}
	if err := a.checkFormats(a.settings().Hints(nil).Formats, chain); err != nil {
		qr.Close()
		return err
	}
	a.decoder = chain
	a.closers = append(a.closers, qr)
	return nil
}

// checkFormats fails when no requested format can be decoded, and warns
// about the ones that cannot.
func (a *App) checkFormats(want decode.FormatSet, d decode.Decoder) error {
	missing := decode.Unserved(want, d)
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == len(want) {
		return fmt.Errorf("%w: %v", decode.ErrNoServedFormats, missing.List())
	}
	a.logger.Warn("no decoder for some formats, they will never match", "formats", missing.List())
	return nil
}

// openSource opens a camera session for cfg.
func (a *App) openSource(cfg camera.Config) (*camera.Source, error) {
	src := camera.NewSource(a.newDriver(cfg), cfg.Options())
	if err := src.Open(nil); err != nil {
		return nil, err
	}
	return src, nil
}

// mockDriver returns a driver whose single camera produces blank frames
// at the negotiated preview size.
func mockDriver() camera.Driver {
	dev := camera.NewMockDevice(camera.DefaultCandidates(), camera.Resolution{Width: 640, Height: 480})
	dev.Generate = func() camera.Frame {
		p, _ := dev.Parameters()
		size := p.PreviewSize
		return camera.Frame{
			Data:   make([]byte, size.Width*size.Height*3/2),
			Width:  size.Width,
			Height: size.Height,
		}
	}
	return camera.NewMockDriver(dev)
}

// startPipeline creates and starts a coordinator over the current source.
func (a *App) startPipeline(ctx context.Context) error {
	consumers := scanner.MultiConsumer{a.webServer, scanner.ConsumerFunc(printScan)}
	if a.history != nil {
		consumers = append(consumers, a.history)
	}

	a.mu.Lock()
	pipeline := scanner.New(a.source, a.decoder, consumers, scanner.Options{
		Settings:   a.settings,
		Renderer:   a.webServer,
		Points:     a.points,
		AutoResume: a.config.AutoResume,
	})
	a.pipeline = pipeline
	a.mu.Unlock()

	a.webServer.SetPipeline(pipeline)
	return pipeline.Start(ctx)
}

// restart tears down the current session and opens a new one with cfg.
func (a *App) restart(ctx context.Context, cfg camera.Config) error {
	a.logger.Info("applying camera config", "device", cfg.Device, "display", cfg.Display(), "focus", cfg.Focus)

	a.mu.Lock()
	pipeline, source := a.pipeline, a.source
	a.pipeline, a.source = nil, nil
	a.mu.Unlock()

	if pipeline != nil {
		pipeline.Terminate()
	}
	if source != nil {
		source.Close()
	}

	src, err := a.openSource(cfg)
	if err != nil {
		a.webServer.PipelineFailed(err)
		return err
	}
	a.mu.Lock()
	a.source = src
	a.mu.Unlock()

	debug.Logln("🔁 Camera session restarted")
	return a.startPipeline(ctx)
}

// queueReopen hands a new camera config to Run, replacing any config that
// has not been applied yet.
func (a *App) queueReopen(cfg camera.Config) error {
	select {
	case <-a.reopen:
	default:
	}
	select {
	case a.reopen <- cfg:
	default:
	}
	return nil
}

// settings is read by each pipeline at start.
func (a *App) settings() scanner.Settings {
	return scanner.Settings{
		Formats:      a.config.Formats,
		FormatPrefs:  a.config.FormatPrefs,
		CharacterSet: a.config.CharacterSet,
	}
}

func printScan(scan scanner.Scan) {
	fmt.Printf("📦 %s: %s\n", scan.Result.Format, scan.Result.Text)
}
