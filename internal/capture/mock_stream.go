package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockStream plays back preset frames for testing.
type MockStream struct {
	frames   []gocv.Mat
	index    int
	loop     bool
	fps      float64
	width    int
	height   int
	realtime bool
	mu       sync.Mutex
	closed   bool
}

// NewMockStream creates a stream that serves the given frames in order.
// With loop set it restarts from the first frame instead of ending.
func NewMockStream(frames []gocv.Mat, loop bool) *MockStream {
	s := &MockStream{
		frames: frames,
		loop:   loop,
	}
	if len(frames) > 0 {
		s.width = frames[0].Cols()
		s.height = frames[0].Rows()
	}
	return s
}

// Read copies the next frame into m.
func (s *MockStream) Read(m *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.frames) == 0 {
		return false
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return false
		}
		s.index = 0
	}

	// Copy so the caller cannot modify the preset frame.
	s.frames[s.index].CopyTo(m)
	s.index++
	return true
}

// FPS returns the configured frame rate.
func (s *MockStream) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// SetFPS sets the frame rate the stream reports.
func (s *MockStream) SetFPS(fps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = fps
}

// FrameSize returns the dimensions of the preset frames.
func (s *MockStream) FrameSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Realtime returns the configured realtime flag.
func (s *MockStream) Realtime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realtime
}

// SetRealtime marks the stream as live or recorded.
func (s *MockStream) SetRealtime(realtime bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realtime = realtime
}

// Close stops playback. The preset frames stay owned by the caller.
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Reset restarts playback from the beginning.
func (s *MockStream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
	s.closed = false
}
