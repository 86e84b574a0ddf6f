// Package testdata builds synthetic media fixtures for tests: frames
// with known content, image files, and short video clips.
package testdata

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Frame returns a solid-color BGR frame of the given size.
func Frame(width, height int, c color.RGBA) gocv.Mat {
	scalar := gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
	return gocv.NewMatWithSizeFromScalar(scalar, height, width, gocv.MatTypeCV8UC3)
}

// Frames returns n frames with a box that moves from frame to frame, so
// consecutive frames differ. The caller owns the Mats.
func Frames(n, width, height int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	step := (width - 40) / max(n, 1)
	for i := range frames {
		frames[i] = Frame(width, height, color.RGBA{R: 24, G: 24, B: 24})
		box := image.Rect(i*step, height/4, i*step+40, height/4+40)
		gocv.Rectangle(&frames[i], box, color.RGBA{R: 0, G: 200, B: 255}, -1)
	}
	return frames
}

// CloseFrames releases every Mat in frames.
func CloseFrames(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}

// WriteImage encodes a frame into an image file; the format follows the
// file extension.
func WriteImage(path string, frame gocv.Mat) error {
	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("write image %s", path)
	}
	return nil
}

// WriteImageDir fills dir with n generated .png stills and returns
// their paths in name order.
func WriteImageDir(dir string, n int) ([]string, error) {
	frames := Frames(n, 320, 240)
	defer CloseFrames(frames)

	paths := make([]string, n)
	for i := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame%02d.png", i))
		if err := WriteImage(path, frames[i]); err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

// WriteAVI writes frames into an MJPG .avi container at the given rate.
func WriteAVI(path string, frames []gocv.Mat, fps float64) error {
	if len(frames) == 0 {
		return fmt.Errorf("write avi %s: no frames", path)
	}

	writer, err := gocv.VideoWriterFile(path, "MJPG", fps, frames[0].Cols(), frames[0].Rows(), true)
	if err != nil {
		return fmt.Errorf("write avi %s: %w", path, err)
	}
	defer writer.Close()

	if !writer.IsOpened() {
		return fmt.Errorf("write avi %s: writer did not open", path)
	}
	for i := range frames {
		if err := writer.Write(frames[i]); err != nil {
			return fmt.Errorf("write avi %s frame %d: %w", path, i, err)
		}
	}
	return nil
}
