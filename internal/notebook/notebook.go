// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notebook builds, reads and writes Jupyter notebooks (nbformat 4)
// holding topic explanations. Every write replaces the file atomically.
package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Cell types.
const (
	MarkdownCell = "markdown"
	CodeCell     = "code"
	RawCell      = "raw"
)

const (
	formatMajor = 4
	formatMinor = 5
)

// ErrUnsupportedFormat is returned when a file is not an nbformat 4 notebook.
var ErrUnsupportedFormat = errors.New("unsupported notebook format")

// Notebook is the top-level nbformat 4 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is one notebook cell. Outputs and ExecutionCount only apply to code
// cells and are omitted from other cell types when encoded.
type Cell struct {
	CellType       string            `json:"cell_type"`
	ID             string            `json:"id,omitempty"`
	Metadata       map[string]any    `json:"metadata"`
	Source         Source            `json:"source"`
	Attachments    json.RawMessage   `json:"attachments,omitempty"`
	Outputs        []json.RawMessage `json:"outputs,omitempty"`
	ExecutionCount *int              `json:"execution_count,omitempty"`
}

// Source is cell text. nbformat allows either a string or a list of lines;
// both decode to one string and it is always encoded as a list of lines.
type Source string

func (s *Source) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Source(str)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source: %w", err)
	}
	*s = Source(strings.Join(lines, ""))
	return nil
}

func (s Source) MarshalJSON() ([]byte, error) {
	lines := strings.SplitAfter(string(s), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return marshal(lines)
}

// cellFields is the part of a cell common to every cell type.
type cellFields struct {
	CellType    string          `json:"cell_type"`
	ID          string          `json:"id,omitempty"`
	Metadata    map[string]any  `json:"metadata"`
	Source      Source          `json:"source"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
}

// MarshalJSON writes code cells with explicit outputs and execution_count
// (null when unset) and drops both keys from other cells.
func (c Cell) MarshalJSON() ([]byte, error) {
	base := cellFields{
		CellType:    c.CellType,
		ID:          c.ID,
		Metadata:    c.Metadata,
		Source:      c.Source,
		Attachments: c.Attachments,
	}
	if base.Metadata == nil {
		base.Metadata = map[string]any{}
	}
	if c.CellType != CodeCell {
		return marshal(base)
	}
	outputs := c.Outputs
	if outputs == nil {
		outputs = []json.RawMessage{}
	}
	return marshal(struct {
		cellFields
		ExecutionCount *int              `json:"execution_count"`
		Outputs        []json.RawMessage `json:"outputs"`
	}{base, c.ExecutionCount, outputs})
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// New returns an empty notebook holding cells.
func New(cells ...Cell) *Notebook {
	return &Notebook{
		Cells:         append([]Cell(nil), cells...),
		Metadata:      map[string]any{},
		NBFormat:      formatMajor,
		NBFormatMinor: formatMinor,
	}
}

// NewMarkdownCell returns a markdown cell with a fresh id.
func NewMarkdownCell(source string) Cell {
	return Cell{CellType: MarkdownCell, ID: newCellID(), Metadata: map[string]any{}, Source: Source(source)}
}

// NewCodeCell returns an unexecuted code cell with a fresh id.
func NewCodeCell(source string) Cell {
	return Cell{CellType: CodeCell, ID: newCellID(), Metadata: map[string]any{}, Source: Source(source)}
}

func newCellID() string {
	return uuid.NewString()
}

// Decode parses an nbformat 4 document.
func Decode(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("decoding notebook: %w", err)
	}
	if nb.NBFormat != formatMajor {
		return nil, fmt.Errorf("%w: nbformat %d", ErrUnsupportedFormat, nb.NBFormat)
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	return &nb, nil
}

// Encode renders nb as indented JSON with a trailing newline.
func Encode(nb *Notebook) ([]byte, error) {
	if nb.Cells == nil {
		nb.Cells = []Cell{}
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(nb); err != nil {
		return nil, fmt.Errorf("encoding notebook: %w", err)
	}
	return buf.Bytes(), nil
}
