// Package config defines the run configuration for the drishti CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Inference backend names accepted by the --backend flag.
const (
	BackendAuto   = "auto"
	BackendOpenCV = "opencv"
	BackendONNX   = "onnx"
)

// RunConfig holds every option for a single detection run.
// It is built once from the command line and never mutated afterwards.
type RunConfig struct {
	// Source is the raw --source value: a camera index, the literal
	// "browse", a stream URL, or a file/directory path.
	Source string

	// Model is the path to the YOLOv8 ONNX weights.
	Model string

	// ImgSize is the square inference input size in pixels.
	ImgSize int

	// Conf is the minimum detection confidence (0.0-1.0).
	Conf float64

	// Device selects the compute device: "auto", "cpu", "cuda",
	// or a bare GPU index such as "0".
	Device string

	// Show opens a preview window with annotated frames.
	Show bool

	// Save writes annotated artifacts under the run directory.
	Save bool

	// Project is the root directory for run outputs.
	Project string

	// Name is the run subdirectory; auto-incremented when empty.
	Name string

	// SaveMP4Direct writes one MP4 directly instead of engine artifacts.
	SaveMP4Direct bool

	// FPS is the frame rate for the direct MP4 writer.
	FPS float64

	// ReencodeMP4 converts saved .avi artifacts to .mp4 after the run.
	ReencodeMP4 bool

	// DeleteAVI removes each .avi after its conversion succeeded.
	DeleteAVI bool

	// Backend selects the inference engine implementation.
	Backend string

	// Classes is an optional YAML file overriding the class names.
	Classes string

	// ORTLibrary is the path to the onnxruntime shared library.
	ORTLibrary string
}

// Defaults returns a RunConfig pre-filled with built-in values.
// Several fields honor environment variables so deployments can pin
// them without repeating flags (a .env file is loaded at startup).
func Defaults() RunConfig {
	return RunConfig{
		Source:     "0",
		Model:      getEnv("DRISHTI_MODEL", "yolov8n.onnx"),
		ImgSize:    getEnvAsInt("DRISHTI_IMGSZ", 640),
		Conf:       0.25,
		Device:     getEnv("DRISHTI_DEVICE", "auto"),
		Project:    getEnv("DRISHTI_PROJECT", "runs/detect"),
		FPS:        25.0,
		Backend:    getEnv("DRISHTI_BACKEND", BackendAuto),
		ORTLibrary: getEnv("ONNXRUNTIME_SHARED_LIB", ""),
	}
}

// Validate checks the configuration for values that cannot produce a
// meaningful run. It returns the first problem found.
func (c RunConfig) Validate() error {
	if c.Conf < 0 || c.Conf > 1 {
		return fmt.Errorf("confidence threshold %.3f outside [0, 1]", c.Conf)
	}
	if c.ImgSize < 1 {
		return fmt.Errorf("image size %d must be positive", c.ImgSize)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps %.2f must be positive", c.FPS)
	}
	if c.DeleteAVI && !c.ReencodeMP4 {
		return fmt.Errorf("--delete-avi requires --reencode-mp4")
	}
	switch c.Backend {
	case BackendAuto, BackendOpenCV, BackendONNX:
	default:
		return fmt.Errorf("unknown backend %q (want auto, opencv, or onnx)", c.Backend)
	}
	return nil
}

// SavingActive reports whether any artifact writing is requested.
func (c RunConfig) SavingActive() bool {
	return c.Save || c.SaveMP4Direct
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
