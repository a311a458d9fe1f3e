package scanner

import "github.com/teslashibe/go-scan/pkg/decode"

// Scan is a successful decode as handed to consumers.
type Scan struct {
	ID       string           `json:"id"`
	Result   decode.Result    `json:"result"`
	Snapshot *decode.Snapshot `json:"snapshot,omitempty"`
}

// ResultConsumer receives successful scans. It is never told about
// failed attempts.
type ResultConsumer interface {
	HandleResult(scan Scan)
}

// ConsumerFunc adapts a function to ResultConsumer.
type ConsumerFunc func(scan Scan)

// HandleResult calls f.
func (f ConsumerFunc) HandleResult(scan Scan) { f(scan) }

// MultiConsumer hands each scan to every consumer in order. A Coordinator
// calls its members one by one and skips the rest once terminated.
type MultiConsumer []ResultConsumer

// HandleResult implements ResultConsumer.
func (m MultiConsumer) HandleResult(scan Scan) {
	for _, c := range m {
		if c != nil {
			c.HandleResult(scan)
		}
	}
}

// flatten lists the non-nil consumers behind c, unpacking nested
// MultiConsumers.
func flatten(c ResultConsumer) []ResultConsumer {
	switch c := c.(type) {
	case nil:
		return nil
	case MultiConsumer:
		var out []ResultConsumer
		for _, inner := range c {
			out = append(out, flatten(inner)...)
		}
		return out
	}
	return []ResultConsumer{c}
}

// Renderer redraws the scanning overlay after state changes.
type Renderer interface {
	Redraw(state State)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(state State)

// Redraw calls f.
func (f RendererFunc) Redraw(state State) { f(state) }
