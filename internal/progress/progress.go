// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress persists which topics have been processed and how.
//
// Two schemes decide resumption: a set of processed codes (progress.json)
// and a per-code status map (results.json or results.db). Both are loaded
// whole at startup and rewritten whole after every update. A separate
// processing log records every attempt and is only ever appended to.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

const (
	// ProgressFile is the default name of the set-of-codes progress file.
	ProgressFile = "progress.json"

	// ResultsFile is the default name of the JSON status map.
	ResultsFile = "results.json"

	// ResultsDB is the default name of the SQLite status map.
	ResultsDB = "results.db"

	// LogFile is the default name of the processing log.
	LogFile = "processing.log"
)

// LoadProgress reads the progress file at path. A missing file yields an
// empty progress value, not an error.
func LoadProgress(path string) (types.Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Progress{ProcessedTopics: []string{}}, nil
		}
		return types.Progress{}, fmt.Errorf("reading progress %s: %w", path, err)
	}

	var p types.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return types.Progress{}, fmt.Errorf("parsing progress %s: %w", path, err)
	}
	if p.ProcessedTopics == nil {
		p.ProcessedTopics = []string{}
	}
	return p, nil
}

// SaveProgress rewrites the progress file at path.
func SaveProgress(path string, p types.Progress) error {
	if p.ProcessedTopics == nil {
		p.ProcessedTopics = []string{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling progress: %w", err)
	}
	return fsutil.WriteFile(path, append(data, '\n'), 0o644)
}
