// Package fsutil reads research queries and writes session outputs.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyQuery is returned when the query file holds only whitespace.
var ErrEmptyQuery = errors.New("fsutil: query file is empty")

// ReadQuery returns the trimmed content of the query file at path.
func ReadQuery(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	q := strings.TrimSpace(string(b))
	if q == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyQuery, path)
	}
	return q, nil
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteLearnings writes learnings separated by blank lines.
func WriteLearnings(path string, learnings []string) error {
	return WriteFile(path, []byte(strings.Join(learnings, "\n\n")))
}
