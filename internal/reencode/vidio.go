package reencode

import (
	"fmt"
	"os"
	"path/filepath"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/google/uuid"
)

// fallbackFPS is used when the source container does not report a rate.
const fallbackFPS = 25.0

// VidioConverter re-encodes video files through ffmpeg via the Vidio
// library.
type VidioConverter struct{}

// Convert decodes src frame by frame and writes dst as an MP4. The
// frames go to a uniquely named temporary file in the destination
// directory first and are renamed into place when the whole file
// converted, so a failed conversion never leaves a partial dst behind.
func (VidioConverter) Convert(src, dst string) error {
	video, err := vidio.NewVideo(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrConversion, src, err)
	}
	defer video.Close()

	if video.Width() == 0 || video.Height() == 0 {
		return fmt.Errorf("%w: %s reports zero dimensions", ErrSkip, src)
	}

	fps := video.FPS()
	if fps <= 0 {
		fps = fallbackFPS
	}

	tmp := filepath.Join(filepath.Dir(dst), uuid.NewString()+".mp4")
	writer, err := vidio.NewVideoWriter(tmp, video.Width(), video.Height(), &vidio.Options{FPS: fps})
	if err != nil {
		return fmt.Errorf("%w: open writer for %s: %v", ErrConversion, dst, err)
	}

	for video.Read() {
		if err := writer.Write(video.FrameBuffer()); err != nil {
			writer.Close()
			os.Remove(tmp)
			return fmt.Errorf("%w: write %s: %v", ErrConversion, dst, err)
		}
	}
	writer.Close()

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: finalize %s: %v", ErrConversion, dst, err)
	}
	return nil
}
