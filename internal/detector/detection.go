package detector

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strconv"

	"gocv.io/x/gocv"
)

// Detection is a single detected object in frame pixel coordinates.
type Detection struct {
	ClassID int
	Label   string
	Score   float32
	Box     image.Rectangle
}

// String formats the detection for logs.
func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f %v", d.Label, d.Score, d.Box)
}

// boxColor is the drawing color for boxes and labels.
var boxColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// decodeOutput converts a raw YOLOv8 output tensor into detections above
// the confidence threshold. The tensor is feature-major: rows 0-3 hold
// cx, cy, w, h in input-size space and the remaining rows hold one score
// per class. Boxes are scaled back to the original frame size and clipped
// to its bounds. No suppression is applied here.
func decodeOutput(data []float32, numFeatures, numCandidates int, cfg Config, origW, origH int) []Detection {
	numClasses := numFeatures - 4
	if numClasses <= 0 || len(data) < numFeatures*numCandidates {
		return nil
	}

	scaleX := float32(origW) / float32(cfg.InputSize)
	scaleY := float32(origH) / float32(cfg.InputSize)
	bounds := image.Rect(0, 0, origW, origH)

	var detections []Detection
	for i := 0; i < numCandidates; i++ {
		bestScore := float32(0)
		bestID := 0
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*numCandidates+i]
			if score > bestScore {
				bestScore = score
				bestID = c
			}
		}
		if bestScore < cfg.ConfThreshold {
			continue
		}

		cx := data[0*numCandidates+i]
		cy := data[1*numCandidates+i]
		w := data[2*numCandidates+i]
		h := data[3*numCandidates+i]

		x1 := (cx - w/2) * scaleX
		y1 := (cy - h/2) * scaleY
		x2 := (cx + w/2) * scaleX
		y2 := (cy + h/2) * scaleY

		box := image.Rect(int(x1), int(y1), int(x2), int(y2)).Intersect(bounds)
		if box.Empty() {
			continue
		}

		detections = append(detections, Detection{
			ClassID: bestID,
			Label:   className(cfg.Classes, bestID),
			Score:   bestScore,
			Box:     box,
		})
	}

	return detections
}

// className returns the label for a class ID, falling back to the numeric
// ID for models with more classes than the configured name list.
func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return strconv.Itoa(id)
}

// nonMaxSuppression drops detections that overlap a higher-scoring
// detection of the same class by more than the IOU threshold.
// The input slice is re-ordered by score.
func nonMaxSuppression(detections []Detection, iouThreshold float32) []Detection {
	if len(detections) == 0 {
		return detections
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})

	keep := make([]Detection, 0, len(detections))
	for _, d := range detections {
		suppressed := false
		for _, k := range keep {
			if k.ClassID == d.ClassID && iou(d.Box, k.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, d)
		}
	}

	return keep
}

// iou computes intersection over union of two rectangles.
func iou(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	interArea := float32(inter.Dx() * inter.Dy())
	if interArea <= 0 {
		return 0
	}

	union := float32(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}

	return interArea / union
}

// DrawDetections draws boxes and score labels onto the frame in place.
func DrawDetections(frame *gocv.Mat, detections []Detection) {
	for _, d := range detections {
		gocv.Rectangle(frame, d.Box, boxColor, 2)

		label := fmt.Sprintf("%s %.2f", d.Label, d.Score)
		at := image.Pt(d.Box.Min.X, d.Box.Min.Y-5)
		if at.Y < 10 {
			// Label would leave the frame, draw it inside the box.
			at.Y = d.Box.Min.Y + 15
		}
		gocv.PutText(frame, label, at, gocv.FontHersheySimplex, 0.5, boxColor, 1)
	}
}

// Annotate draws the detections onto a copy of the frame and returns it.
// The caller owns the returned Mat.
func Annotate(frame gocv.Mat, detections []Detection) gocv.Mat {
	out := frame.Clone()
	DrawDetections(&out, detections)
	return out
}
