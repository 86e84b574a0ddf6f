// Package app drives one detection run end to end: frames in, optional
// preview and artifacts out, a summary at the end.
package app

import (
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/reencode"
	"github.com/ayusman/drishti/internal/runner"
	"github.com/ayusman/drishti/internal/source"
)

// WindowTitle names the preview window.
const WindowTitle = "YOLOv8 Detect"

// App owns a single detection run.
type App struct {
	config    config.RunConfig
	desc      source.Descriptor
	detector  detector.Detector
	converter reencode.Converter

	interrupted atomic.Bool
}

// New assembles a run from its configuration, resolved source, and
// detection engine. The engine stays owned by the caller.
func New(cfg config.RunConfig, desc source.Descriptor, det detector.Detector) *App {
	return &App{
		config:    cfg,
		desc:      desc,
		detector:  det,
		converter: reencode.VidioConverter{},
	}
}

// SetDetector replaces the detection engine. Tests use this to run the
// pipeline against a mock.
func (a *App) SetDetector(d detector.Detector) {
	a.detector = d
}

// SetConverter replaces the post-run AVI to MP4 converter.
func (a *App) SetConverter(c reencode.Converter) {
	a.converter = c
}

// Run executes the frame loop and everything around it: the optional
// preview window, the optional artifact writers, the detection summary,
// and the post-run conversion pass. It blocks until the source is
// exhausted, a quit key is pressed, or the process is interrupted.
//
// A user-initiated stop is not an error; only fatal conditions (source
// unavailable, inference failure, output sink failure) surface.
func (a *App) Run() error {
	rn, err := runner.New(a.desc, a.detector)
	if err != nil {
		return err
	}
	defer rn.Close()

	var window *display.Window
	if a.config.Show {
		window = display.NewWindow(WindowTitle)
		defer window.Close()
	}

	// An interrupt flips a flag the loop checks once per frame, so
	// Ctrl-C still produces the summary and the post-run conversion.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-sigCh:
			a.interrupted.Store(true)
		case <-stopWatch:
		}
	}()

	st := newRunState()
	runErr := a.processFrames(rn, window, st)
	if closeErr := st.close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return runErr
	}

	st.tally.print(os.Stdout)
	if st.tally.frames == 0 {
		return nil
	}

	a.postRun(st)
	return nil
}
