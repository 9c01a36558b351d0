package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// WriteFiles writes files below dir, creating directories as needed.
func WriteFiles(logger *slog.Logger, dir string, files []File) error {
	for _, f := range files {
		out := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(out, f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		logger.Info("Generated file", "file", out, "bytes", len(f.Data))
	}
	return nil
}

// Drift lists the files whose content below dir differs from files, or
// that do not exist yet.
func Drift(dir string, files []File) ([]string, error) {
	var stale []string
	for _, f := range files {
		have, err := os.ReadFile(filepath.Join(dir, f.Path))
		switch {
		case errors.Is(err, os.ErrNotExist):
			stale = append(stale, f.Path)
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", f.Path, err)
		case !bytes.Equal(have, f.Data):
			stale = append(stale, f.Path)
		}
	}
	return stale, nil
}
