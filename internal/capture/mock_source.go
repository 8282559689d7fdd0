package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockSource serves synthetic frames for testing. Frames are produced on
// demand by a render function so long videos do not need to be held in memory.
type MockSource struct {
	count  int
	fps    float64
	render func(n int) gocv.Mat
	mu     sync.Mutex
	closed bool
	reads  []int
}

// NewMockSource creates a source of count frames drawn by render.
func NewMockSource(count int, fps float64, render func(n int) gocv.Mat) *MockSource {
	return &MockSource{count: count, fps: fps, render: render}
}

// NewMockSourceFromMats plays back pre-built frames. Each read returns a clone
// so the originals stay untouched.
func NewMockSourceFromMats(frames []gocv.Mat, fps float64) *MockSource {
	return NewMockSource(len(frames), fps, func(n int) gocv.Mat {
		return frames[n].Clone()
	})
}

func (s *MockSource) FrameCount() int { return s.count }
func (s *MockSource) FPS() float64    { return s.fps }

func (s *MockSource) Frame(n int) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrVideoClosed
	}
	if n < 0 || n >= s.count {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrFrameOutOfRange, n, s.count)
	}
	s.reads = append(s.reads, n)
	return NewFrame(n, s.render(n)), nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reads returns the frame numbers requested so far, in request order.
func (s *MockSource) Reads() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.reads))
	copy(out, s.reads)
	return out
}

// Closed reports whether Close was called.
func (s *MockSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
