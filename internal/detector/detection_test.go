package detector

import (
	"image"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// buildOutput lays out a feature-major tensor the way the model emits it:
// data[feature*numCandidates+candidate].
func buildOutput(numFeatures, numCandidates int, candidates [][]float32) []float32 {
	data := make([]float32, numFeatures*numCandidates)
	for i, cand := range candidates {
		for f, v := range cand {
			data[f*numCandidates+i] = v
		}
	}
	return data
}

func TestDecodeOutput(t *testing.T) {
	cfg := Config{
		InputSize:     640,
		ConfThreshold: 0.25,
		Classes:       []string{"car", "truck"},
	}

	// 2 classes -> 6 features: cx, cy, w, h, score_car, score_truck.
	data := buildOutput(6, 4, [][]float32{
		{320, 320, 160, 160, 0.9, 0.1},     // confident car, center of input
		{100, 100, 40, 40, 0.2, 0.1},       // below threshold
		{100, 100, 40, 40, 0.05, 0.8},      // confident truck
		{-200, -200, 40, 40, 0.99, 0.001},  // entirely outside the frame
	})

	// Original frame is 1280x640: x scales by 2, y by 1.
	detections := decodeOutput(data, 6, 4, cfg, 1280, 640)

	if len(detections) != 2 {
		t.Fatalf("got %d detections, want 2: %v", len(detections), detections)
	}

	car := detections[0]
	if car.ClassID != 0 || car.Label != "car" {
		t.Errorf("first detection = %s (class %d), want car (class 0)", car.Label, car.ClassID)
	}
	if car.Score != 0.9 {
		t.Errorf("car score = %f, want 0.9", car.Score)
	}
	wantBox := image.Rect(480, 240, 800, 400)
	if car.Box != wantBox {
		t.Errorf("car box = %v, want %v", car.Box, wantBox)
	}

	truck := detections[1]
	if truck.Label != "truck" {
		t.Errorf("second detection = %s, want truck", truck.Label)
	}
	wantBox = image.Rect(160, 80, 240, 120)
	if truck.Box != wantBox {
		t.Errorf("truck box = %v, want %v", truck.Box, wantBox)
	}
}

func TestDecodeOutput_ZeroThresholdKeepsWeakCandidates(t *testing.T) {
	cfg := Config{
		InputSize:     640,
		ConfThreshold: 0,
		Classes:       []string{"car"},
	}

	data := buildOutput(5, 1, [][]float32{
		{320, 320, 100, 100, 0.01},
	})

	detections := decodeOutput(data, 5, 1, cfg, 640, 640)
	if len(detections) != 1 {
		t.Fatalf("got %d detections, want 1 with zero threshold", len(detections))
	}
}

func TestDecodeOutput_ClipsToFrame(t *testing.T) {
	cfg := Config{
		InputSize:     640,
		ConfThreshold: 0.25,
		Classes:       []string{"car"},
	}

	// Box sticks out past the right and bottom edges.
	data := buildOutput(5, 1, [][]float32{
		{600, 600, 200, 200, 0.9},
	})

	detections := decodeOutput(data, 5, 1, cfg, 640, 640)
	if len(detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(detections))
	}

	box := detections[0].Box
	frame := image.Rect(0, 0, 640, 640)
	if !box.In(frame) {
		t.Errorf("box %v is not clipped to frame %v", box, frame)
	}
	if box.Max.X != 640 || box.Max.Y != 640 {
		t.Errorf("box %v should be clipped at the frame edge", box)
	}
}

func TestDecodeOutput_DegenerateInputs(t *testing.T) {
	cfg := Config{InputSize: 640, ConfThreshold: 0.25}

	if got := decodeOutput(nil, 6, 4, cfg, 640, 640); got != nil {
		t.Errorf("decodeOutput(nil) = %v, want nil", got)
	}
	if got := decodeOutput(make([]float32, 10), 4, 4, cfg, 640, 640); got != nil {
		t.Errorf("decodeOutput with no class rows = %v, want nil", got)
	}
	if got := decodeOutput(make([]float32, 3), 6, 4, cfg, 640, 640); got != nil {
		t.Errorf("decodeOutput with short tensor = %v, want nil", got)
	}
}

func TestClassName(t *testing.T) {
	classes := []string{"car", "truck"}

	tests := []struct {
		id   int
		want string
	}{
		{0, "car"},
		{1, "truck"},
		{2, "2"},
		{-1, "-1"},
	}

	for _, tt := range tests {
		if got := className(classes, tt.id); got != tt.want {
			t.Errorf("className(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNonMaxSuppression(t *testing.T) {
	detections := []Detection{
		{ClassID: 2, Label: "car", Score: 0.8, Box: image.Rect(10, 10, 110, 110)},
		{ClassID: 2, Label: "car", Score: 0.9, Box: image.Rect(0, 0, 100, 100)},
		{ClassID: 0, Label: "person", Score: 0.7, Box: image.Rect(0, 0, 100, 100)},
		{ClassID: 2, Label: "car", Score: 0.6, Box: image.Rect(200, 200, 300, 300)},
	}

	keep := nonMaxSuppression(detections, 0.45)

	if len(keep) != 3 {
		t.Fatalf("got %d detections after suppression, want 3: %v", len(keep), keep)
	}

	// Sorted by score: the strongest car wins, its overlapping twin is
	// suppressed, the person survives despite full overlap (other class),
	// and the distant car survives.
	if keep[0].Score != 0.9 || keep[0].Label != "car" {
		t.Errorf("keep[0] = %v, want the 0.9 car", keep[0])
	}
	if keep[1].Label != "person" {
		t.Errorf("keep[1] = %v, want the person", keep[1])
	}
	if keep[2].Score != 0.6 {
		t.Errorf("keep[2] = %v, want the distant 0.6 car", keep[2])
	}
}

func TestNonMaxSuppression_Empty(t *testing.T) {
	if got := nonMaxSuppression(nil, 0.45); len(got) != 0 {
		t.Errorf("nonMaxSuppression(nil) = %v, want empty", got)
	}
}

func TestIOU(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float32
	}{
		{
			name: "identical boxes",
			a:    image.Rect(0, 0, 100, 100),
			b:    image.Rect(0, 0, 100, 100),
			want: 1.0,
		},
		{
			name: "disjoint boxes",
			a:    image.Rect(0, 0, 100, 100),
			b:    image.Rect(200, 200, 300, 300),
			want: 0.0,
		},
		{
			name: "half horizontal overlap",
			a:    image.Rect(0, 0, 100, 100),
			b:    image.Rect(50, 0, 150, 100),
			want: 1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := iou(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("iou() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestHeadCandidates(t *testing.T) {
	tests := []struct {
		inputSize int
		want      int
	}{
		{640, 8400},
		{320, 2100},
		{1280, 33600},
	}

	for _, tt := range tests {
		if got := headCandidates(tt.inputSize); got != tt.want {
			t.Errorf("headCandidates(%d) = %d, want %d", tt.inputSize, got, tt.want)
		}
	}
}

func TestDrawDetections(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawDetections(&frame, RoadSceneDetections())

	if frame.Empty() {
		t.Error("frame should not be empty after drawing")
	}

	// The green box pixels must have changed from the all-black frame.
	mean := frame.Mean()
	if mean.Val2 == 0 {
		t.Error("expected green channel to change after drawing boxes")
	}
}

func TestAnnotate_LeavesOriginalUntouched(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	annotated := Annotate(frame, RoadSceneDetections())
	defer annotated.Close()

	if annotated.Rows() != frame.Rows() || annotated.Cols() != frame.Cols() {
		t.Errorf("annotated size = %dx%d, want %dx%d",
			annotated.Cols(), annotated.Rows(), frame.Cols(), frame.Rows())
	}

	if mean := frame.Mean(); mean.Val2 != 0 {
		t.Error("original frame should stay black when annotating a copy")
	}
	if mean := annotated.Mean(); mean.Val2 == 0 {
		t.Error("annotated copy should contain drawn boxes")
	}
}
