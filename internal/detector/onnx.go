package detector

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// The ONNX Runtime environment is process-global and initialized once,
// with the shared library path of the first detector that needs it.
var (
	ortInit    sync.Once
	ortInitErr error
)

// ONNXDetector runs YOLOv8 inference through ONNX Runtime.
type ONNXDetector struct {
	config  Config
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	input   []float32 // reused NCHW buffer
}

// NewONNXDetector creates a session for the model using the tensor names
// YOLOv8 exports carry: input "images", output "output0".
func NewONNXDetector(cfg Config) (*ONNXDetector, error) {
	ortInit.Do(func() {
		if cfg.ORTLibrary != "" {
			ort.SetSharedLibraryPath(cfg.ORTLibrary)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrModelLoad, ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", ErrModelLoad, err)
	}
	defer options.Destroy()

	if device := cfg.Device; device == "cuda" || isDeviceIndex(device) {
		if err := appendCUDA(options, device); err != nil {
			log.Printf("CUDA provider not available (%v), staying on CPU", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"images"}, []string{"output0"}, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, cfg.ModelPath, err)
	}

	return &ONNXDetector{config: cfg, session: session}, nil
}

// appendCUDA adds the CUDA execution provider, selecting the GPU ordinal
// when the device string is a bare index.
func appendCUDA(options *ort.SessionOptions, device string) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()

	if isDeviceIndex(device) {
		if err := cudaOptions.Update(map[string]string{"device_id": device}); err != nil {
			return err
		}
	}

	return options.AppendExecutionProviderCUDA(cudaOptions)
}

// Detect runs one forward pass and decodes the detections.
func (d *ONNXDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fillInput(frame); err != nil {
		return nil, err
	}

	size := d.config.InputSize
	inputShape := ort.NewShape(1, 3, int64(size), int64(size))
	inputTensor, err := ort.NewTensor(inputShape, d.input)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	numFeatures := 4 + len(d.config.Classes)
	numCandidates := headCandidates(size)
	outputShape := ort.NewShape(1, int64(numFeatures), int64(numCandidates))
	outputData := make([]float32, numFeatures*numCandidates)
	outputTensor, err := ort.NewTensor(outputShape, outputData)
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = d.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor})
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	shape := outputTensor.GetShape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}

	detections := decodeOutput(outputTensor.GetData(), int(shape[1]), int(shape[2]),
		d.config, frame.Cols(), frame.Rows())
	return nonMaxSuppression(detections, d.config.IOUThreshold), nil
}

// fillInput resizes the frame to the model input size and writes it as a
// normalized RGB NCHW tensor into the reused input buffer.
func (d *ONNXDetector) fillInput(frame *gocv.Mat) error {
	if frame.Channels() != 3 {
		return fmt.Errorf("expected 3-channel frame, got %d channels", frame.Channels())
	}

	size := d.config.InputSize
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(*frame, &resized, image.Pt(size, size), 0, 0, gocv.InterpolationLinear)

	pixels, err := resized.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("read frame pixels: %w", err)
	}

	n := size * size
	if len(d.input) != 3*n {
		d.input = make([]float32, 3*n)
	}

	// OpenCV frames are BGR, the model expects RGB planes.
	for i := 0; i < n; i++ {
		b := float32(pixels[i*3+0])
		g := float32(pixels[i*3+1])
		r := float32(pixels[i*3+2])
		d.input[0*n+i] = r / 255.0
		d.input[1*n+i] = g / 255.0
		d.input[2*n+i] = b / 255.0
	}

	return nil
}

// headCandidates returns the number of anchor-free head outputs for a
// square input: one candidate per cell at strides 8, 16, and 32.
func headCandidates(inputSize int) int {
	s8 := inputSize / 8
	s16 := inputSize / 16
	s32 := inputSize / 32
	return s8*s8 + s16*s16 + s32*s32
}

// Close destroys the session. The runtime environment itself stays
// initialized for the life of the process.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	return err
}
