package decode

import (
	"sync"
	"time"
)

// Mock implements Decoder for testing.
type Mock struct {
	// DecodeFunc is called when Decode is invoked.
	DecodeFunc func(sample *Luminance, hints Hints) (Result, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a decode invocation.
type MockCall struct {
	Width  int
	Height int
	Time   time.Time
}

// NewMock creates a mock decoder that never finds anything.
func NewMock() *Mock {
	return &Mock{
		DecodeFunc: func(*Luminance, Hints) (Result, error) {
			return Result{}, ErrNotFound
		},
	}
}

// Decode implements Decoder.
func (m *Mock) Decode(sample *Luminance, hints Hints) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Width: sample.Width(), Height: sample.Height(), Time: time.Now()})
	fn := m.DecodeFunc
	m.mu.Unlock()

	if fn == nil {
		return Result{}, ErrNotFound
	}
	return fn(sample, hints)
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError creates a mock that always returns err.
func WithError(err error) *Mock {
	m := NewMock()
	m.DecodeFunc = func(*Luminance, Hints) (Result, error) {
		return Result{}, err
	}
	return m
}

// EveryNth creates a mock that finds text on every nth attempt and nothing
// in between.
func EveryNth(n int, text string, format Format) *Mock {
	m := NewMock()
	var count int
	m.DecodeFunc = func(*Luminance, Hints) (Result, error) {
		count++
		if n <= 0 || count%n != 0 {
			return Result{}, ErrNotFound
		}
		return Result{Text: text, Format: format, DecodedAt: time.Now()}, nil
	}
	return m
}
