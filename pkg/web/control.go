package web

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-scan/pkg/scanner"
)

// Control actions accepted on /ws/control
const (
	ActionResume = "resume"
	ActionStatus = "status"
)

// ControlRequest is a command sent by a remote operator.
type ControlRequest struct {
	Action string `json:"action"`
}

// ControlReply answers a ControlRequest.
type ControlReply struct {
	OK    bool          `json:"ok"`
	State scanner.State `json:"state"`
	Error string        `json:"error,omitempty"`
}

// controlHandler lets a client drive the pipeline over a websocket, one
// JSON request per message.
func (s *Server) controlHandler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		log := s.logger.With("remote", c.RemoteAddr().String())
		log.Info("control client connected")
		defer log.Info("control client disconnected")

		for {
			var req ControlRequest
			if err := c.ReadJSON(&req); err != nil {
				return
			}

			reply := s.control(req)
			c.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.WriteJSON(reply); err != nil {
				return
			}
		}
	})
}

// control executes one request against the attached pipeline.
func (s *Server) control(req ControlRequest) ControlReply {
	p := s.getPipeline()
	if p == nil {
		return ControlReply{Error: "pipeline not running"}
	}

	switch req.Action {
	case ActionResume:
		ok := p.Resume()
		reply := ControlReply{OK: ok, State: p.State()}
		if !ok {
			reply.Error = "not ready"
		}
		return reply
	case ActionStatus:
		return ControlReply{OK: true, State: p.State()}
	default:
		return ControlReply{State: p.State(), Error: "unknown action: " + req.Action}
	}
}
