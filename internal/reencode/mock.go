package reencode

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StubConverter is a test implementation of the Converter interface.
// It copies the source file to the destination instead of transcoding,
// and can be told to fail or skip specific files by base name.
type StubConverter struct {
	mu       sync.Mutex
	failFor  map[string]bool
	skipFor  map[string]bool
	attempts []string
}

// NewStubConverter creates a converter that succeeds for every file.
func NewStubConverter() *StubConverter {
	return &StubConverter{
		failFor: make(map[string]bool),
		skipFor: make(map[string]bool),
	}
}

// FailFor makes conversions of the given base name fail.
func (c *StubConverter) FailFor(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failFor[base] = true
}

// SkipFor makes conversions of the given base name report ErrSkip.
func (c *StubConverter) SkipFor(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipFor[base] = true
}

// Attempts returns the base names passed to Convert, in order.
func (c *StubConverter) Attempts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.attempts...)
}

// Convert records the attempt and copies src to dst unless configured
// to fail or skip.
func (c *StubConverter) Convert(src, dst string) error {
	base := filepath.Base(src)

	c.mu.Lock()
	c.attempts = append(c.attempts, base)
	fail := c.failFor[base]
	skip := c.skipFor[base]
	c.mu.Unlock()

	if skip {
		return fmt.Errorf("%w: %s", ErrSkip, src)
	}
	if fail {
		return fmt.Errorf("%w: forced failure for %s", ErrConversion, src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrConversion, src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrConversion, dst, err)
	}
	return nil
}
