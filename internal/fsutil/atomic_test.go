// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteFile(path, []byte("new"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	assertNoTempFiles(t, filepath.Dir(path))
}

type failingReader struct{ n int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.n == 0 {
		return 0, errors.New("connection reset")
	}
	f.n--
	return copy(p, "partial"), nil
}

func TestWriteFromKeepsOldFileOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img1.png")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	_, err := WriteFrom(path, &failingReader{n: 1}, 0o644)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
	assertNoTempFiles(t, dir)
}

func TestWriteFromCountsBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	n, err := WriteFrom(path, io.LimitReader(strings.NewReader(strings.Repeat("x", 100)), 42), 0o600)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileMissingDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("{}"), 0o644)
	require.Error(t, err)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
