// Package reencode converts the .avi artifacts a run saved into .mp4
// siblings once the frame loop has finished.
package reencode

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrConversion wraps the cause of a failed file conversion. It is
	// the one non-fatal error in the tool: the file is reported and the
	// batch moves on.
	ErrConversion = errors.New("conversion failed")

	// ErrSkip marks a file the converter declined without failing, such
	// as a container reporting zero dimensions. Skipped files are not
	// counted as conversions and produce no failure report.
	ErrSkip = errors.New("file skipped")
)

// Converter turns one saved video file into an MP4 sibling.
type Converter interface {
	Convert(src, dst string) error
}

// Processor batch-converts the .avi files under a directory tree.
type Processor struct {
	converter Converter
	deleteAVI bool
}

// New returns a Processor backed by the given converter. With deleteAVI
// set, each source file is removed once its own conversion succeeded;
// a failed conversion never deletes anything.
func New(converter Converter, deleteAVI bool) *Processor {
	return &Processor{converter: converter, deleteAVI: deleteAVI}
}

// Result sums up one batch pass.
type Result struct {
	Converted int
	Failed    int
	Skipped   int
	Deleted   int
}

// Run scans root recursively for .avi files and converts each into an
// .mp4 next to it. A failure on one file is logged and the batch
// continues. Running again after a pass that deleted its sources is a
// no-op apart from the usual notice.
func (p *Processor) Run(root string) (Result, error) {
	avis, err := findAVIs(root)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, src := range avis {
		dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".mp4"

		switch err := p.converter.Convert(src, dst); {
		case errors.Is(err, ErrSkip):
			res.Skipped++
			continue
		case err != nil:
			log.Printf("Failed to re-encode %s: %v", src, err)
			res.Failed++
			continue
		}

		fmt.Printf("Re-encoded to: %s\n", dst)
		res.Converted++

		if p.deleteAVI {
			if err := os.Remove(src); err != nil {
				log.Printf("Could not delete %s: %v", src, err)
			} else {
				fmt.Printf("Deleted source AVI: %s\n", src)
				res.Deleted++
			}
		}
	}

	if res.Converted == 0 {
		fmt.Println("No .avi files found to convert, or conversion not needed.")
	}
	return res, nil
}

// findAVIs returns every .avi file under root, sorted by path.
func findAVIs(root string) ([]string, error) {
	var avis []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".avi") {
			avis = append(avis, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(avis)
	return avis, nil
}
