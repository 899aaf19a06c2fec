// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
)

// SummaryFile is the run report written next to the outputs.
const SummaryFile = "run-summary.yaml"

// Summary holds the counts of one run.
type Summary struct {
	RunID string `yaml:"run_id,omitempty"`

	Total         int `yaml:"total"`
	Skipped       int `yaml:"skipped"`
	Processed     int `yaml:"processed"`
	Failed        int `yaml:"failed"`
	ImagesFetched int `yaml:"images_fetched"`

	FailedCodes []string `yaml:"failed_codes,omitempty"`
	Interrupted bool     `yaml:"interrupted,omitempty"`

	OutputDir string `yaml:"output_dir"`
	Progress  string `yaml:"progress"`
}

// HasFailures reports whether any topic failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Print writes the human-readable summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\nprocessed: %d, failed: %d, skipped: %d, images: %d\n", s.Processed, s.Failed, s.Skipped, s.ImagesFetched)
	if s.HasFailures() {
		fmt.Fprintf(w, "failed topics: %v (retried on the next run)\n", s.FailedCodes)
	}
	fmt.Fprintf(w, "output: %s\n", s.OutputDir)
	fmt.Fprintf(w, "progress: %s\n", s.Progress)
}

// WriteSummary stores s as YAML in dir/SummaryFile.
func WriteSummary(dir string, s Summary) (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := fsutil.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run summary: %w", err)
	}
	return path, nil
}
