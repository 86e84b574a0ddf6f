package app

import (
	"fmt"
	"io"
	"sort"

	"github.com/ayusman/drishti/internal/detector"
)

// tally accumulates per-class detection statistics across the run.
type tally struct {
	frames     int
	detections int
	counts     map[string]int
	confSums   map[string]float64
}

func newTally() *tally {
	return &tally{
		counts:   make(map[string]int),
		confSums: make(map[string]float64),
	}
}

// add records one processed frame and its detections.
func (t *tally) add(detections []detector.Detection) {
	t.frames++
	t.detections += len(detections)
	for _, d := range detections {
		t.counts[d.Label]++
		t.confSums[d.Label] += float64(d.Score)
	}
}

// print writes the run summary. A run that never produced a frame gets
// a pointer at the usual culprit instead of statistics.
func (t *tally) print(w io.Writer) {
	if t.frames == 0 {
		fmt.Fprintln(w, "No frames processed. Check your source path or camera index.")
		return
	}

	fmt.Fprintln(w, "\n===== Detection Summary =====")
	fmt.Fprintf(w, "Frames processed: %d\n", t.frames)
	fmt.Fprintf(w, "Total detections: %d\n", t.detections)
	if t.detections == 0 {
		fmt.Fprintln(w, "No objects detected above the confidence threshold.")
		return
	}

	fmt.Fprintln(w, "Per-class counts and avg confidence:")
	labels := make([]string, 0, len(t.counts))
	for label := range t.counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		count := t.counts[label]
		fmt.Fprintf(w, "- %s: %d (avg conf %.3f)\n", label, count, t.confSums[label]/float64(count))
	}
}
