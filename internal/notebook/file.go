// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
)

// Parsed is the result of re-reading a notebook.
type Parsed struct {
	Notebook *Notebook
	// Content is the text of all markdown cells joined by a blank line.
	Content string
	// Primary is Content without the critique and code sections.
	Primary   string
	CellCount int
}

// WriteFile encodes nb completely and then replaces path in one rename.
func WriteFile(path string, nb *Notebook) error {
	data, err := Encode(nb)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing notebook %s: %w", path, err)
	}
	return nil
}

// ReadFile loads the notebook at path.
func ReadFile(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook: %w", err)
	}
	nb, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nb, nil
}

// Parse loads the notebook at path and collects its markdown text.
func Parse(path string) (Parsed, error) {
	nb, err := ReadFile(path)
	if err != nil {
		return Parsed{}, err
	}
	var all, primary []string
	for _, c := range nb.Cells {
		if c.CellType != MarkdownCell {
			continue
		}
		all = append(all, string(c.Source))
		if !isReview(c) {
			primary = append(primary, string(c.Source))
		}
	}
	return Parsed{
		Notebook:  nb,
		Content:   strings.Join(all, "\n\n"),
		Primary:   strings.Join(primary, "\n\n"),
		CellCount: len(nb.Cells),
	}, nil
}

// AppendSections adds the critique and code sections of c to the notebook
// at path and rewrites it. The explanation fields of c are ignored. When c
// carries neither a critique nor code the file is left untouched.
func AppendSections(path string, c Content) error {
	cells := reviewCells(c)
	if len(cells) == 0 {
		return nil
	}
	nb, err := ReadFile(path)
	if err != nil {
		return err
	}
	nb.Cells = append(nb.Cells, cells...)
	return WriteFile(path, nb)
}

// ReplaceSections is AppendSections for a notebook that may already carry
// review sections: the existing critique, code heading and code cells are
// dropped first, so each section still appears at most once and in order.
func ReplaceSections(path string, c Content) error {
	cells := reviewCells(c)
	if len(cells) == 0 {
		return nil
	}
	nb, err := ReadFile(path)
	if err != nil {
		return err
	}
	kept := nb.Cells[:0:0]
	for _, cell := range nb.Cells {
		if !isReview(cell) {
			kept = append(kept, cell)
		}
	}
	nb.Cells = append(kept, cells...)
	return WriteFile(path, nb)
}
