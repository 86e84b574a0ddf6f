// Package capture opens video sources through GoCV (OpenCV) and reads
// frames from them.
package capture

import (
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/source"
)

// Stream defines the interface for frame source implementations.
type Stream interface {
	// Read fills m with the next frame. It returns false when the source
	// is exhausted or delivers an empty frame.
	Read(m *gocv.Mat) bool

	// FPS returns the source-reported frame rate, 0 when unknown.
	FPS() float64

	// FrameSize returns the source-reported frame dimensions.
	FrameSize() (width, height int)

	// Realtime reports whether frames are delivered live rather than
	// replayed from recorded media.
	Realtime() bool

	// Close releases the underlying capture.
	Close() error
}

// Open opens a stream for the descriptor. Directory descriptors are
// expanded file by file before reaching this point.
func Open(desc source.Descriptor) (Stream, error) {
	switch desc.Kind {
	case source.KindCamera:
		return OpenCamera(desc.Index)
	case source.KindFile:
		return OpenFile(desc.Path)
	case source.KindStream:
		return OpenURL(desc.Path)
	default:
		return nil, fmt.Errorf("%w: cannot open %s directly", source.ErrUnavailable, desc)
	}
}

// OpenCamera opens the camera at the given device index.
func OpenCamera(index int) (Stream, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d", source.ErrUnavailable, index)
	}
	return &videoStream{capture: capture, realtime: true}, nil
}

// OpenFile opens a recorded video file.
func OpenFile(path string) (Stream, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", source.ErrUnavailable, path)
	}
	return &videoStream{capture: capture}, nil
}

// OpenURL opens a network stream such as an RTSP feed.
func OpenURL(url string) (Stream, error) {
	capture, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", source.ErrUnavailable, url)
	}
	return &videoStream{capture: capture, realtime: true}, nil
}

// videoStream wraps a GoCV VideoCapture.
type videoStream struct {
	capture  *gocv.VideoCapture
	realtime bool
	mu       sync.Mutex
}

// Read fills m with the next frame.
func (s *videoStream) Read(m *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return false
	}
	if ok := s.capture.Read(m); !ok {
		return false
	}
	return !m.Empty()
}

// FPS returns the frame rate reported by the source.
// Cameras and broken containers often report nothing useful; those
// cases come back as 0.
func (s *videoStream) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0
	}
	fps := s.capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0
	}
	return fps
}

// FrameSize returns the reported frame dimensions.
func (s *videoStream) FrameSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0, 0
	}
	width := int(s.capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(s.capture.Get(gocv.VideoCaptureFrameHeight))
	return width, height
}

// Realtime reports whether this is a live source.
func (s *videoStream) Realtime() bool {
	return s.realtime
}

// Close releases the capture. Closing twice is safe.
func (s *videoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
