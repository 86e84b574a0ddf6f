package app

import (
	"fmt"
	"io"
	"log"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/output"
	"github.com/ayusman/drishti/internal/reencode"
	"github.com/ayusman/drishti/internal/runner"
)

// runState carries what one pass of the frame loop accumulates: the
// detection tally and the lazily opened artifact sinks.
type runState struct {
	tally  *tally
	runDir string
	mp4    *output.MP4Writer
	saver  *output.ArtifactSaver
}

func newRunState() *runState {
	return &runState{tally: newTally()}
}

// close finalizes any open artifact sinks and returns the first error.
func (st *runState) close() error {
	var first error
	if st.mp4 != nil {
		if err := st.mp4.Close(); err != nil {
			first = err
		}
	}
	if st.saver != nil {
		if err := st.saver.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// processFrames pulls results from the runner until the source ends,
// the user quits, or something fatal happens. Display and saving are
// sequential side effects of the same iteration; there is no
// parallelism to coordinate.
func (a *App) processFrames(rn *runner.Runner, window *display.Window, st *runState) error {
	for {
		if a.interrupted.Load() {
			log.Println("Interrupted, finishing up")
			return nil
		}

		res, err := rn.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		st.tally.add(res.Detections)

		var annotated gocv.Mat
		if a.config.Show || a.config.SavingActive() {
			annotated = res.Annotated()
		}

		if a.config.SavingActive() {
			if err := a.saveFrame(res, annotated, st); err != nil {
				return err
			}
		}

		if window != nil && window.Show(annotated, res.Realtime) {
			return nil
		}
	}
}

// saveFrame routes one annotated frame to the active sink. When both
// save flags are set the direct MP4 writer wins and the default
// artifact saver stays unused.
func (a *App) saveFrame(res *runner.Result, annotated gocv.Mat, st *runState) error {
	if st.runDir == "" {
		dir, err := output.RunDir(a.config.Project, a.config.Name)
		if err != nil {
			return err
		}
		st.runDir = dir
	}

	if a.config.SaveMP4Direct {
		if st.mp4 == nil {
			st.mp4 = output.NewMP4Writer(st.runDir, a.config.FPS)
		}
		return st.mp4.Write(annotated)
	}

	if st.saver == nil {
		st.saver = output.NewArtifactSaver(st.runDir)
	}
	if res.Image {
		return st.saver.SaveImage(res.FileName, annotated)
	}
	return st.saver.WriteVideoFrame(res.SourceTag, res.FPS, annotated)
}

// postRun reports where artifacts landed and, when requested, converts
// the run's .avi files to .mp4.
func (a *App) postRun(st *runState) {
	if !a.config.SavingActive() {
		return
	}

	project := a.config.Project
	if abs, err := filepath.Abs(project); err == nil {
		project = abs
	}
	fmt.Printf("\nSaved annotated outputs under: %s\n", project)

	if !a.config.ReencodeMP4 {
		return
	}

	// Prefer the run directory when the loop wrote artifacts there,
	// otherwise sweep the whole project.
	root := st.runDir
	if root == "" {
		root = a.config.Project
	}
	if _, err := reencode.New(a.converter, a.config.DeleteAVI).Run(root); err != nil {
		log.Printf("Re-encode scan failed: %v", err)
	}
}
