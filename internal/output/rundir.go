// Package output writes annotated artifacts under a per-run output
// directory.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrOutputSink is returned when an artifact destination cannot be
// created or written.
var ErrOutputSink = errors.New("output sink failed")

// FallbackFPS is the artifact frame rate used when the source does not
// report one.
const FallbackFPS = 25.0

// RunDir resolves and creates the directory one run's artifacts land
// in. A named run goes to <project>/<name>, which may already exist.
// Without a name the first free auto-incremented directory is used:
// <project>/predict, predict2, predict3, and so on.
func RunDir(project, name string) (string, error) {
	dir := filepath.Join(project, name)
	if name == "" {
		dir = filepath.Join(project, "predict")
		for i := 2; exists(dir); i++ {
			dir = filepath.Join(project, fmt.Sprintf("predict%d", i))
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrOutputSink, dir, err)
	}
	return dir, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
