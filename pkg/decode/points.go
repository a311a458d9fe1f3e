package decode

import "sync"

// Bounds for PointList.
const (
	MaxResultPoints  = 20
	keptResultPoints = 10
)

// PointList collects candidate feature points for the live overlay. It is
// written by the worker and read by the dashboard. When more than
// MaxResultPoints accumulate, only the newest half is kept.
type PointList struct {
	mu     sync.Mutex
	points []Point
}

// Add appends p, trimming the oldest points when the list overflows.
func (l *PointList) Add(p Point) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.points = append(l.points, p)
	if len(l.points) > MaxResultPoints {
		trimmed := make([]Point, keptResultPoints)
		copy(trimmed, l.points[len(l.points)-keptResultPoints:])
		l.points = trimmed
	}
}

// Snapshot returns a copy of the current points.
func (l *PointList) Snapshot() []Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Point(nil), l.points...)
}

// Drain returns the current points and empties the list.
func (l *PointList) Drain() []Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.points
	l.points = nil
	return out
}

// Len returns the number of points held.
func (l *PointList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.points)
}
