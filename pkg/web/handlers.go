package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/hub"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

// handleStatus returns the pipeline state and geometry
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleResults returns recent scans, newest last
func (s *Server) handleResults(c *fiber.Ctx) error {
	s.recentMu.RLock()
	out := make([]scanner.Scan, len(s.recent))
	copy(out, s.recent)
	s.recentMu.RUnlock()
	return c.JSON(out)
}

// handleSnapshot serves the thumbnail of the last successful scan
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	s.recentMu.RLock()
	jpeg := s.snapshot
	s.recentMu.RUnlock()

	if len(jpeg) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no snapshot yet",
		})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(jpeg)
}

// handlePoints returns the candidate points seen since the last poll
func (s *Server) handlePoints(c *fiber.Ctx) error {
	if s.opts.Points == nil {
		return c.JSON([]decode.Point{})
	}
	points := s.opts.Points.Drain()
	if points == nil {
		points = []decode.Point{}
	}
	return c.JSON(points)
}

// handleResume starts the next decode cycle after a success
func (s *Server) handleResume(c *fiber.Ctx) error {
	p := s.getPipeline()
	if p == nil {
		msg := "pipeline not running"
		if e := s.pipelineError(); e != "" {
			msg += ": " + e
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": msg,
		})
	}
	resumed := p.Resume()
	return c.JSON(fiber.Map{
		"resumed": resumed,
		"state":   p.State(),
	})
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.opts.Manager == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera config not available",
		})
	}
	return c.JSON(s.opts.Manager.GetConfigJSON())
}

// handleUpdateCamera applies partial camera configuration. Changes take
// effect the next time the camera is opened.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.opts.Manager == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera config not available",
		})
	}

	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON: " + err.Error(),
		})
	}
	if err := s.opts.Manager.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("camera config updated", "fields", len(params))
	return c.JSON(s.opts.Manager.GetConfigJSON())
}

// handlePresets lists the named camera presets
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.PresetNames(),
	})
}

// handleHistory lists stored scans, optionally filtered by ?q=
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.opts.History == nil {
		return c.JSON(fiber.Map{"records": []interface{}{}, "count": 0})
	}

	var (
		records interface{}
		err     error
	)
	if q := c.Query("q"); q != "" {
		records, err = s.opts.History.Search(q)
	} else {
		records, err = s.opts.History.List()
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"records": records,
		"count":   s.opts.History.Count(),
	})
}

// handleDeleteHistory removes one stored scan
func (s *Server) handleDeleteHistory(c *fiber.Ctx) error {
	if s.opts.History == nil {
		return fiber.ErrNotFound
	}
	if err := s.opts.History.Delete(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleStatusWS streams status updates, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.status())
	hub.NewClient(s.statusHub, c).Run()
}

// handleResultsWS streams scan envelopes, replaying recent scans first
func (s *Server) handleResultsWS(c *websocket.Conn) {
	s.recentMu.RLock()
	backlog := make([]scanner.Scan, len(s.recent))
	copy(backlog, s.recent)
	s.recentMu.RUnlock()

	for _, scan := range backlog {
		msg, err := hub.NewEnvelope("scan", scan)
		if err != nil {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
			return
		}
	}
	hub.NewClient(s.resultsHub, c).Run()
}

// handleSnapshotWS streams JPEG thumbnails as binary frames
func (s *Server) handleSnapshotWS(c *websocket.Conn) {
	s.recentMu.RLock()
	jpeg := s.snapshot
	s.recentMu.RUnlock()

	if len(jpeg) > 0 {
		if err := c.WriteMessage(websocket.BinaryMessage, jpeg); err != nil {
			return
		}
	}
	hub.NewClient(s.snapshotHub, c).Run()
}
