// Package web provides the live scanning dashboard and its HTTP API
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/history"
	"github.com/teslashibe/go-scan/pkg/hub"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

//go:embed static
var staticFiles embed.FS

// maxRecent is how many scans the dashboard keeps in memory.
const maxRecent = 50

// Pipeline is the coordinator surface the dashboard reads and controls.
type Pipeline interface {
	State() scanner.State
	FrameRequests() int64
	Stats() decode.Stats
	Resume() bool
}

// Geometry exposes the negotiated resolutions and capture regions.
type Geometry interface {
	Profile() camera.DisplayProfile
	CaptureRegion() (camera.Rect, bool)
	CaptureRegionInPreview() (camera.Rect, bool)
}

// Options wires optional collaborators into the server.
type Options struct {
	Geometry Geometry
	Manager  *camera.Manager
	History  history.Store
	Points   *decode.PointList
}

// Status is the dashboard's view of the pipeline.
type Status struct {
	State           scanner.State         `json:"state"`
	FrameRequests   int64                 `json:"frame_requests"`
	Stats           decode.Stats          `json:"stats"`
	Profile         camera.DisplayProfile `json:"profile"`
	Region          *camera.Rect          `json:"region,omitempty"`
	RegionInPreview *camera.Rect          `json:"region_in_preview,omitempty"`
	Error           string                `json:"error,omitempty"`
	Clients         int                   `json:"clients"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	opts   Options
	logger *slog.Logger

	pipeline    Pipeline
	pipelineErr string
	pipelineMu  sync.RWMutex

	// Recent scans, newest last
	recent   []scanner.Scan
	snapshot []byte
	recentMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub   *hub.Hub
	resultsHub  *hub.Hub
	snapshotHub *hub.Hub
}

// NewServer creates a new web dashboard server
func NewServer(port string, opts Options) *Server {
	s := &Server{
		port:        port,
		opts:        opts,
		logger:      slog.Default().With("component", "web.server"),
		recent:      make([]scanner.Scan, 0, maxRecent),
		statusHub:   hub.New("status"),
		resultsHub:  hub.New("results"),
		snapshotHub: hub.NewLatest("snapshot"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-scan",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/results", s.handleResults)
	api.Get("/snapshot", s.handleSnapshot)
	api.Get("/points", s.handlePoints)
	api.Post("/resume", s.handleResume)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)
	api.Get("/presets", s.handlePresets)
	api.Get("/history", s.handleHistory)
	api.Delete("/history/:id", s.handleDeleteHistory)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/snapshot", websocket.New(s.handleSnapshotWS))
	app.Get("/ws/control", s.controlHandler())

	// Dashboard page
	static, _ := fs.Sub(staticFiles, "static")
	app.Use("/", filesystem.New(filesystem.Config{
		Root:   http.FS(static),
		Browse: false,
	}))

	s.app = app
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetPipeline attaches the coordinator once it exists.
func (s *Server) SetPipeline(p Pipeline) {
	s.pipelineMu.Lock()
	s.pipeline = p
	s.pipelineErr = ""
	s.pipelineMu.Unlock()
}

// PipelineFailed detaches the current coordinator after a session could
// not be replaced, and reports err to dashboard clients until the next
// SetPipeline.
func (s *Server) PipelineFailed(err error) {
	s.pipelineMu.Lock()
	s.pipeline = nil
	s.pipelineErr = err.Error()
	s.pipelineMu.Unlock()

	if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

func (s *Server) getPipeline() Pipeline {
	s.pipelineMu.RLock()
	defer s.pipelineMu.RUnlock()
	return s.pipeline
}

func (s *Server) pipelineError() string {
	s.pipelineMu.RLock()
	defer s.pipelineMu.RUnlock()
	return s.pipelineErr
}

// Start starts the hubs and blocks serving HTTP
func (s *Server) Start() error {
	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.resultsHub.Run()
	go s.snapshotHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the HTTP server
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.resultsHub.Stop()
	s.snapshotHub.Stop()
	return s.app.Shutdown()
}

// Redraw implements scanner.Renderer by pushing the new status to
// dashboard clients.
func (s *Server) Redraw(state scanner.State) {
	st := s.status()
	st.State = state
	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

// HandleResult implements scanner.ResultConsumer.
func (s *Server) HandleResult(scan scanner.Scan) {
	s.recentMu.Lock()
	s.recent = append(s.recent, scan)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[len(s.recent)-maxRecent:]
	}
	if scan.Snapshot != nil {
		s.snapshot = scan.Snapshot.JPEG
	}
	s.recentMu.Unlock()

	msg, err := hub.NewEnvelope("scan", scan)
	if err != nil {
		s.logger.Warn("scan encode failed", "error", err)
		return
	}
	s.resultsHub.Broadcast(msg)
	if scan.Snapshot != nil {
		s.snapshotHub.BroadcastBinary(scan.Snapshot.JPEG)
	}
}

// status assembles the current Status.
func (s *Server) status() Status {
	st := Status{
		State:     scanner.StateReady,
		Clients:   s.statusHub.ClientCount() + s.resultsHub.ClientCount() + s.snapshotHub.ClientCount(),
		Error:     s.pipelineError(),
		UpdatedAt: time.Now(),
	}
	if p := s.getPipeline(); p != nil {
		st.State = p.State()
		st.FrameRequests = p.FrameRequests()
		st.Stats = p.Stats()
	}
	if g := s.opts.Geometry; g != nil {
		st.Profile = g.Profile()
		if r, ok := g.CaptureRegion(); ok {
			st.Region = &r
		}
		if r, ok := g.CaptureRegionInPreview(); ok {
			st.RegionInPreview = &r
		}
	}
	return st
}
