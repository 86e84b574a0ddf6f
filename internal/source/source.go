// Package source resolves the --source argument into a concrete input
// descriptor: a camera index, a media file, a directory of media files,
// or a network stream URL.
package source

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Browse is the --source literal that opens a file picker instead.
const Browse = "browse"

var (
	// ErrNoSourceSelected is returned when the file dialog is cancelled
	// without choosing a file.
	ErrNoSourceSelected = errors.New("no source selected")

	// ErrUnavailable is returned when a source cannot be found or opened.
	ErrUnavailable = errors.New("source unavailable")
)

// streamPrefixes are the URL schemes treated as live network streams.
var streamPrefixes = []string{"rtsp://", "rtmp://", "http://", "https://"}

// Kind classifies a resolved source.
type Kind int

const (
	KindCamera Kind = iota
	KindFile
	KindDir
	KindStream
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Descriptor is the resolved form of the --source argument.
// It is produced exactly once at startup and consumed by the runner.
type Descriptor struct {
	Kind  Kind
	Index int    // camera index, valid when Kind is KindCamera
	Path  string // file path, directory path, or stream URL otherwise
}

// String describes the descriptor for logs.
func (d Descriptor) String() string {
	if d.Kind == KindCamera {
		return fmt.Sprintf("camera %d", d.Index)
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Path)
}

// Realtime reports whether the source delivers live frames rather than
// replaying recorded media.
func (d Descriptor) Realtime() bool {
	return d.Kind == KindCamera || d.Kind == KindStream
}

// Resolve turns the raw --source value into a Descriptor.
//
// Resolution order: the literal "browse" asks the picker first and the
// chosen path continues through the remaining rules; an all-digits value
// is a camera index; a known URL scheme is a stream; anything else must
// be an existing file or directory.
func Resolve(raw string, picker Picker) (Descriptor, error) {
	if raw == Browse {
		path, err := picker.Pick()
		if err != nil {
			if errors.Is(err, ErrNoSourceSelected) {
				return Descriptor{}, err
			}
			return Descriptor{}, fmt.Errorf("file dialog: %w", err)
		}
		if path == "" {
			return Descriptor{}, ErrNoSourceSelected
		}
		raw = path
	}

	if isCameraIndex(raw) {
		index, err := strconv.Atoi(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("camera index %q: %w", raw, err)
		}
		return Descriptor{Kind: KindCamera, Index: index}, nil
	}

	if isStreamURL(raw) {
		return Descriptor{Kind: KindStream, Path: raw}, nil
	}

	info, err := os.Stat(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnavailable, raw)
	}
	if info.IsDir() {
		return Descriptor{Kind: KindDir, Path: raw}, nil
	}
	return Descriptor{Kind: KindFile, Path: raw}, nil
}

// isCameraIndex reports whether s is a non-negative integer literal.
func isCameraIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isStreamURL reports whether s starts with a supported stream scheme.
func isStreamURL(s string) bool {
	for _, prefix := range streamPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
