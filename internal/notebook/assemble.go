// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/topic-explainer/internal/logging"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

const (
	// DefaultSharedName is the notebook file used in shared output mode.
	DefaultSharedName = "explanations.ipynb"

	// Extension is the notebook file suffix.
	Extension = ".ipynb"
)

// Assembler writes the document of each topic.
//
// In per-topic mode every topic gets Dir/<code>.ipynb. In shared mode all
// topics go into one notebook, Dir/SharedName, which is rewritten after
// every topic; a topic assembled again replaces its earlier cells.
type Assembler struct {
	Mode       types.OutputMode
	Dir        string
	SharedName string
	Log        *logging.Logger
}

// Path returns the file that holds topic t.
func (a *Assembler) Path(t types.Topic) string {
	if a.Mode == types.OutputShared {
		name := a.SharedName
		if name == "" {
			name = DefaultSharedName
		}
		return filepath.Join(a.Dir, name)
	}
	return filepath.Join(a.Dir, t.Code+Extension)
}

// Assemble composes c for t and writes it. It returns the written path, or
// false when the document could not be written.
func (a *Assembler) Assemble(t types.Topic, c Content) (string, bool) {
	log := logging.OrNop(a.Log).With("code", t.Code)
	path := a.Path(t)

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		log.Error("creating output directory failed", "dir", a.Dir, "error", err)
		return "", false
	}

	c.Topic = t.Code
	var nb *Notebook
	if a.Mode == types.OutputShared {
		c.Title = t.DetailedQuery
		existing, err := loadShared(path)
		if err != nil {
			// Never overwrite a notebook that cannot be read back.
			log.Error("loading shared notebook failed", "path", path, "error", err)
			return "", false
		}
		nb = existing
		nb.Cells = append(withoutTopic(nb.Cells, t.Code), Compose(c)...)
	} else {
		nb = New(Compose(c)...)
	}

	if err := WriteFile(path, nb); err != nil {
		log.Error("writing notebook failed", "path", path, "error", err)
		return "", false
	}
	log.Debug("notebook written", "path", path, "cells", len(nb.Cells))
	return path, true
}

func loadShared(path string) (*Notebook, error) {
	nb, err := ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	return nb, err
}

func withoutTopic(cells []Cell, code string) []Cell {
	kept := cells[:0:0]
	for _, c := range cells {
		if topicOf(c) != code {
			kept = append(kept, c)
		}
	}
	return kept
}
