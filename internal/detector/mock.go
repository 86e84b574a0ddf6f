package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	detections []Detection
	err        error
	calls      int
	closed     bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	return m.closed
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close marks the detector as closed.
func (m *MockDetector) Close() error {
	m.closed = true
	return nil
}

// RoadSceneDetections returns a preset of typical road detections:
// a car, a pedestrian, and a traffic light.
func RoadSceneDetections() []Detection {
	return []Detection{
		{ClassID: 2, Label: "car", Score: 0.91, Box: image.Rect(80, 120, 300, 260)},
		{ClassID: 0, Label: "person", Score: 0.78, Box: image.Rect(340, 100, 400, 240)},
		{ClassID: 9, Label: "traffic light", Score: 0.64, Box: image.Rect(500, 20, 530, 90)},
	}
}
