// Package detector runs YOLOv8 object detection on video frames.
package detector

import (
	"errors"
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/config"
)

// ErrModelLoad is returned when the model weights cannot be loaded.
var ErrModelLoad = errors.New("model load failed")

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detections above the
	// configured confidence threshold, boxes in frame pixel coordinates.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for object detection.
type Config struct {
	// ModelPath is the ONNX weights file.
	ModelPath string

	// InputSize is the square inference input size in pixels.
	InputSize int

	// ConfThreshold is the minimum detection confidence (0.0-1.0).
	ConfThreshold float32

	// IOUThreshold is the overlap threshold for non-max suppression.
	IOUThreshold float32

	// Device selects the compute device: "auto", "cpu", "cuda",
	// or a bare GPU index.
	Device string

	// Classes are the class names indexed by class ID.
	Classes []string

	// ORTLibrary is the path to the onnxruntime shared library,
	// used by the ONNX Runtime backend.
	ORTLibrary string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath:     "yolov8n.onnx",
		InputSize:     640,
		ConfThreshold: 0.25,
		IOUThreshold:  0.45,
		Device:        "auto",
		Classes:       COCOClasses,
	}
}

// New builds a detector for the requested backend. Backend "auto" uses
// ONNX Runtime when its shared library is configured and falls back to
// OpenCV DNN when the runtime cannot be brought up.
func New(backend string, cfg Config) (Detector, error) {
	// The detection head emits one candidate per cell at strides
	// 8, 16, and 32, so the input side must divide by 32.
	if cfg.InputSize%32 != 0 {
		adjusted := (cfg.InputSize + 31) / 32 * 32
		log.Printf("imgsz %d is not a multiple of 32, using %d", cfg.InputSize, adjusted)
		cfg.InputSize = adjusted
	}

	switch backend {
	case config.BackendOpenCV:
		return NewOpenCVDetector(cfg)
	case config.BackendONNX:
		return NewONNXDetector(cfg)
	case config.BackendAuto, "":
		if cfg.ORTLibrary != "" {
			d, err := NewONNXDetector(cfg)
			if err == nil {
				log.Println("Using ONNX Runtime inference")
				return d, nil
			}
			log.Printf("ONNX Runtime not available (%v), using OpenCV DNN", err)
		}
		return NewOpenCVDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// isDeviceIndex reports whether the device string is a bare GPU ordinal.
func isDeviceIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
