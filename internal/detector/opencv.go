package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// OpenCVDetector runs YOLOv8 inference through the OpenCV DNN module.
// It needs no runtime beyond the OpenCV build itself.
type OpenCVDetector struct {
	config Config
	net    gocv.Net
	mu     sync.Mutex
}

// NewOpenCVDetector loads the ONNX weights into an OpenCV DNN network
// and binds it to the configured device.
func NewOpenCVDetector(cfg Config) (*OpenCVDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s is not a readable ONNX network", ErrModelLoad, cfg.ModelPath)
	}

	backend, target := dnnDevice(cfg.Device)
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: set backend: %v", ErrModelLoad, err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: set target: %v", ErrModelLoad, err)
	}

	return &OpenCVDetector{config: cfg, net: net}, nil
}

// dnnDevice maps the device string onto a DNN backend and target.
// A bare GPU index selects CUDA; the DNN module cannot address a
// specific ordinal, so the index value itself is not honored here.
func dnnDevice(device string) (gocv.NetBackendType, gocv.NetTargetType) {
	switch {
	case device == "cuda" || isDeviceIndex(device):
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA
	case device == "cpu":
		return gocv.NetBackendOpenCV, gocv.NetTargetCPU
	default:
		return gocv.NetBackendDefault, gocv.NetTargetCPU
	}
}

// Detect runs one forward pass and decodes the detections.
func (d *OpenCVDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := d.config.InputSize
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output tensor: %w", err)
	}

	detections := decodeOutput(data, dims[1], dims[2], d.config, frame.Cols(), frame.Rows())
	return nonMaxSuppression(detections, d.config.IOUThreshold), nil
}

// Close releases the network.
func (d *OpenCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
