// Package display renders annotated frames in an on-screen preview
// window and watches for the quit keys.
package display

import (
	"gocv.io/x/gocv"
)

// Keys that end the run when pressed in the preview window.
const (
	keyEsc = 27
	keyQ   = 'q'
)

// WaitKey intervals in milliseconds. Live sources poll briefly to keep
// pace with the camera; recorded files hold each frame long enough to
// be watchable.
const (
	liveDelayMs = 1
	fileDelayMs = 10
)

// Window wraps a GoCV highgui window. Create one only when the run
// actually shows frames; construction binds a native window handle.
type Window struct {
	win    *gocv.Window
	closed bool
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show renders the frame and polls the keyboard once. It returns true
// when the user pressed a quit key. The poll interval depends on
// whether the source is live.
func (w *Window) Show(frame gocv.Mat, realtime bool) bool {
	if w.closed || frame.Empty() {
		return false
	}
	w.win.IMShow(frame)
	return IsQuitKey(w.win.WaitKey(PollDelay(realtime)))
}

// Close destroys the window. Closing twice is safe.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}

// PollDelay returns the WaitKey interval for a source type.
func PollDelay(realtime bool) int {
	if realtime {
		return liveDelayMs
	}
	return fileDelayMs
}

// IsQuitKey reports whether a WaitKey code asks to end the run.
// Esc and q quit; -1 means no key was pressed.
func IsQuitKey(key int) bool {
	return key == keyEsc || key == keyQ
}
