// Package runner streams frames from a resolved source through a
// detector, one result at a time.
package runner

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/source"
)

// Media extensions accepted when expanding directories and single files.
var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".gif": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true}
)

// Result is one processed frame with its detections. The Mats it exposes
// stay owned by the runner and are valid until the next call to Next or
// Close.
type Result struct {
	Frame      gocv.Mat
	Detections []detector.Detection

	// SourceTag names the segment for artifact naming: the file stem,
	// the camera index, or "stream".
	SourceTag string

	// FileName is the base name of the originating media file, empty
	// for camera and stream sources.
	FileName string

	// Realtime marks frames delivered live rather than replayed.
	Realtime bool

	// Image marks a single still image rather than a video frame.
	Image bool

	// FPS is the source-reported frame rate, 0 when unknown.
	FPS float64

	// FrameIndex counts frames within the current segment, from 0.
	FrameIndex int

	// NewSegment marks the first result from a new file or stream.
	NewSegment bool

	runner *Runner
}

// Annotated returns the frame with its detections drawn on. The Mat is
// owned by the runner and valid until the next call to Next or Close;
// repeated calls for the same result draw only once.
func (r *Result) Annotated() gocv.Mat {
	return r.runner.annotatedFor(r)
}

// item is one media input produced by expanding the source descriptor.
type item struct {
	desc  source.Descriptor
	image bool
	tag   string
	name  string
}

// Runner pulls frames from the source, runs detection on each, and
// yields results until every item is exhausted.
type Runner struct {
	detector detector.Detector
	items    []item

	// open is capture.Open, replaceable in tests.
	open func(source.Descriptor) (capture.Stream, error)

	stream   capture.Stream
	tag      string
	name     string
	realtime bool
	fps      float64
	frameIdx int

	frame        gocv.Mat
	annotated    gocv.Mat
	seq          int
	annotatedSeq int

	closed bool
}

// New expands the descriptor and prepares a runner over its media items.
// Directories become their media files in name order; empty directories
// and unsupported single files are rejected here.
func New(desc source.Descriptor, det detector.Detector) (*Runner, error) {
	items, err := expand(desc)
	if err != nil {
		return nil, err
	}

	return &Runner{
		detector:  det,
		items:     items,
		open:      capture.Open,
		frame:     gocv.NewMat(),
		annotated: gocv.NewMat(),
	}, nil
}

// Next returns the next processed frame, or io.EOF when the source is
// exhausted. Detection failures and sources that cannot deliver a first
// frame surface as errors.
func (rn *Runner) Next() (*Result, error) {
	if rn.closed {
		return nil, io.EOF
	}

	for {
		// Drain the open stream before moving to the next item.
		if rn.stream != nil {
			if rn.stream.Read(&rn.frame) {
				return rn.emit(false)
			}
			if rn.realtime && rn.frameIdx == 0 {
				rn.closeStream()
				return nil, fmt.Errorf("%w: no frames from live source %s", source.ErrUnavailable, rn.tag)
			}
			rn.closeStream()
			continue
		}

		if len(rn.items) == 0 {
			return nil, io.EOF
		}
		next := rn.items[0]
		rn.items = rn.items[1:]

		if next.image {
			img := gocv.IMRead(next.desc.Path, gocv.IMReadColor)
			if img.Empty() {
				img.Close()
				return nil, fmt.Errorf("%w: unreadable image %s", source.ErrUnavailable, next.desc.Path)
			}
			img.CopyTo(&rn.frame)
			img.Close()

			rn.tag = next.tag
			rn.name = next.name
			rn.realtime = false
			rn.fps = 0
			rn.frameIdx = 0
			return rn.emit(true)
		}

		stream, err := rn.open(next.desc)
		if err != nil {
			return nil, err
		}
		rn.stream = stream
		rn.tag = next.tag
		rn.name = next.name
		rn.realtime = stream.Realtime()
		rn.fps = stream.FPS()
		rn.frameIdx = 0
	}
}

// emit runs detection on the buffered frame and packages the result.
func (rn *Runner) emit(image bool) (*Result, error) {
	detections, err := rn.detector.Detect(&rn.frame)
	if err != nil {
		return nil, fmt.Errorf("detect frame %d of %s: %w", rn.frameIdx, rn.tag, err)
	}

	rn.seq++
	result := &Result{
		Frame:      rn.frame,
		Detections: detections,
		SourceTag:  rn.tag,
		FileName:   rn.name,
		Realtime:   rn.realtime,
		Image:      image,
		FPS:        rn.fps,
		FrameIndex: rn.frameIdx,
		NewSegment: rn.frameIdx == 0,
		runner:     rn,
	}
	rn.frameIdx++
	return result, nil
}

// annotatedFor draws the detections into the reused annotation buffer,
// once per emitted result.
func (rn *Runner) annotatedFor(r *Result) gocv.Mat {
	if rn.annotatedSeq != rn.seq {
		r.Frame.CopyTo(&rn.annotated)
		detector.DrawDetections(&rn.annotated, r.Detections)
		rn.annotatedSeq = rn.seq
	}
	return rn.annotated
}

func (rn *Runner) closeStream() {
	if rn.stream == nil {
		return
	}
	if err := rn.stream.Close(); err != nil {
		log.Printf("Error closing stream: %v", err)
	}
	rn.stream = nil
}

// Close releases the open stream and the frame buffers.
// Closing twice is safe.
func (rn *Runner) Close() error {
	if rn.closed {
		return nil
	}
	rn.closed = true
	rn.closeStream()
	rn.frame.Close()
	rn.annotated.Close()
	return nil
}

// expand turns the descriptor into the ordered list of media items.
func expand(desc source.Descriptor) ([]item, error) {
	switch desc.Kind {
	case source.KindCamera:
		return []item{{desc: desc, tag: strconv.Itoa(desc.Index)}}, nil

	case source.KindStream:
		return []item{{desc: desc, tag: "stream"}}, nil

	case source.KindFile:
		it, ok := fileItem(desc.Path)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported media type %s", source.ErrUnavailable, desc.Path)
		}
		return []item{it}, nil

	case source.KindDir:
		entries, err := os.ReadDir(desc.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", source.ErrUnavailable, desc.Path)
		}
		var items []item
		// ReadDir returns entries sorted by name.
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if it, ok := fileItem(filepath.Join(desc.Path, entry.Name())); ok {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: no media files in %s", source.ErrUnavailable, desc.Path)
		}
		return items, nil

	default:
		return nil, fmt.Errorf("%w: %s", source.ErrUnavailable, desc)
	}
}

// fileItem classifies a path by extension.
func fileItem(path string) (item, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)
	tag := strings.TrimSuffix(name, filepath.Ext(path))

	switch {
	case imageExts[ext]:
		return item{desc: source.Descriptor{Kind: source.KindFile, Path: path}, image: true, tag: tag, name: name}, true
	case videoExts[ext]:
		return item{desc: source.Descriptor{Kind: source.KindFile, Path: path}, tag: tag, name: name}, true
	}
	return item{}, false
}
