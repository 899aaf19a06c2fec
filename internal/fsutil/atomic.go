// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil writes files so that readers only ever observe the old
// contents or the complete new contents.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to path through a temporary file in the same
// directory that is renamed over path once fully written and closed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := WriteFrom(path, bytes.NewReader(data), perm)
	return err
}

// WriteFrom copies r to path the same way WriteFile does and returns the
// number of bytes written. On any error the temporary file is removed and
// path is left untouched.
func WriteFrom(path string, r io.Reader, perm os.FileMode) (int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, r)
	if copyErr == nil {
		copyErr = tmpFile.Sync()
	}
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("writing %s: %w", path, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}
