package scanner

import (
	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
)

// event is a message to the coordinator loop.
type event interface {
	isEvent()
}

// restartEvent moves a ready pipeline back to decoding.
type restartEvent struct{}

// frameEvent carries a frame from the source.
type frameEvent struct {
	frame camera.Frame
}

// outcomeEvent carries the worker's answer to one request.
type outcomeEvent struct {
	outcome decode.Outcome
}

func (restartEvent) isEvent() {}
func (frameEvent) isEvent()   {}
func (outcomeEvent) isEvent() {}
