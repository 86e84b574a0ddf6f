package output

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"
)

// MP4Writer writes every annotated frame of a run into a single MP4
// file at <dir>/0.mp4. The underlying video writer opens on the first
// frame, once the frame dimensions are known.
type MP4Writer struct {
	dir    string
	fps    float64
	writer *gocv.VideoWriter
	path   string
	frames int
}

// NewMP4Writer prepares a direct MP4 writer for the run directory.
// Nothing is created until the first Write.
func NewMP4Writer(dir string, fps float64) *MP4Writer {
	return &MP4Writer{dir: dir, fps: fps}
}

// Write appends one frame, opening the output file sized to the first
// frame it sees.
func (w *MP4Writer) Write(frame gocv.Mat) error {
	if w.writer == nil {
		path := filepath.Join(w.dir, "0.mp4")
		writer, err := gocv.VideoWriterFile(path, "mp4v", w.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrOutputSink, path, err)
		}
		if !writer.IsOpened() {
			writer.Close()
			return fmt.Errorf("%w: open %s", ErrOutputSink, path)
		}
		w.writer = writer
		w.path = path
		fmt.Printf("Writing direct MP4 to: %s\n", path)
	}

	if err := w.writer.Write(frame); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrOutputSink, w.path, err)
	}
	w.frames++
	return nil
}

// Path returns the output file path, empty before the first write.
func (w *MP4Writer) Path() string {
	return w.path
}

// Frames returns how many frames have been written.
func (w *MP4Writer) Frames() int {
	return w.frames
}

// Close finalizes the output file. A writer that never received a frame
// closes without creating anything.
func (w *MP4Writer) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrOutputSink, w.path, err)
	}
	return nil
}

// ArtifactSaver writes default run artifacts: annotated still images
// keep their original file name, video segments become one MJPG .avi
// per source. The .avi container is what the post-run re-encode pass
// exists for.
type ArtifactSaver struct {
	dir    string
	writer *gocv.VideoWriter
	tag    string
	path   string
	saved  int
}

// NewArtifactSaver writes artifacts into the run directory.
func NewArtifactSaver(dir string) *ArtifactSaver {
	return &ArtifactSaver{dir: dir}
}

// SaveImage writes one annotated still image under its original name.
func (s *ArtifactSaver) SaveImage(name string, frame gocv.Mat) error {
	path := filepath.Join(s.dir, name)
	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("%w: write %s", ErrOutputSink, path)
	}
	s.saved++
	return nil
}

// WriteVideoFrame appends a frame to the segment named by tag, starting
// a new <tag>.avi whenever the tag changes. The segment plays at the
// source rate, or FallbackFPS when the source does not report one.
func (s *ArtifactSaver) WriteVideoFrame(tag string, fps float64, frame gocv.Mat) error {
	if s.writer == nil || tag != s.tag {
		if err := s.closeWriter(); err != nil {
			return err
		}
		if fps <= 0 {
			fps = FallbackFPS
		}
		path := filepath.Join(s.dir, tag+".avi")
		writer, err := gocv.VideoWriterFile(path, "MJPG", fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrOutputSink, path, err)
		}
		if !writer.IsOpened() {
			writer.Close()
			return fmt.Errorf("%w: open %s", ErrOutputSink, path)
		}
		s.writer = writer
		s.tag = tag
		s.path = path
	}

	if err := s.writer.Write(frame); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrOutputSink, s.path, err)
	}
	s.saved++
	return nil
}

// Saved returns how many artifacts (images and video frames) have been
// written.
func (s *ArtifactSaver) Saved() int {
	return s.saved
}

// Close finalizes the current video segment, if any.
func (s *ArtifactSaver) Close() error {
	return s.closeWriter()
}

func (s *ArtifactSaver) closeWriter() error {
	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.writer = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrOutputSink, s.path, err)
	}
	return nil
}
