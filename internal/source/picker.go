package source

import (
	"errors"

	"github.com/ncruces/zenity"
)

// Picker obtains a media path from the user. Implementations may block
// until the user responds.
type Picker interface {
	Pick() (string, error)
}

// DialogPicker asks through the platform's native open-file dialog.
type DialogPicker struct{}

// Pick opens the dialog and returns the chosen path.
// Cancelling the dialog yields ErrNoSourceSelected.
func (DialogPicker) Pick() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select image or video"),
		zenity.FileFilters{
			{Name: "Media files", Patterns: []string{
				"*.jpg", "*.jpeg", "*.png", "*.bmp", "*.gif",
				"*.mp4", "*.avi", "*.mov", "*.mkv",
			}, CaseFold: true},
			{Name: "All files", Patterns: []string{"*"}},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrNoSourceSelected
		}
		return "", err
	}
	return path, nil
}

// StubPicker returns preset values. It stands in for the dialog in tests
// and headless environments.
type StubPicker struct {
	Path string
	Err  error
}

// Pick returns the preset path or error.
func (p StubPicker) Pick() (string, error) {
	return p.Path, p.Err
}
