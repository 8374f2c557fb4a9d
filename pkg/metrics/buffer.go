package metrics

import (
	"sync"
	"time"
)

// Point is one probe value kept in memory.
type Point struct {
	Timestamp uint32    `json:"timestamp"`
	Value     float64   `json:"value"`
	Received  time.Time `json:"received"`
}

// RingBuffer keeps the last size points, overwriting the oldest.
type RingBuffer struct {
	mu     sync.RWMutex
	points []Point
	next   int
	count  int
}

// NewBuffer creates a PointStore holding up to size points.
func NewBuffer(size int) PointStore {
	if size < 1 {
		size = 1
	}

	return &RingBuffer{points: make([]Point, size)}
}

// Add stores p, dropping the oldest point when full.
func (b *RingBuffer) Add(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points[b.next] = p
	b.next = (b.next + 1) % len(b.points)

	if b.count < len(b.points) {
		b.count++
	}
}

// Points returns the stored points, oldest first.
func (b *RingBuffer) Points() []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Point, 0, b.count)
	start := (b.next - b.count + len(b.points)) % len(b.points)

	for i := 0; i < b.count; i++ {
		out = append(out, b.points[(start+i)%len(b.points)])
	}

	return out
}

// Last returns the newest point.
func (b *RingBuffer) Last() (Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return Point{}, false
	}

	return b.points[(b.next-1+len(b.points))%len(b.points)], true
}
