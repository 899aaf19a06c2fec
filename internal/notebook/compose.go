// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"strings"
)

// Section identifies the role of a composed cell. It is stored in the cell
// metadata under SectionKey.
type Section string

const (
	SectionExplanation Section = "explanation"
	SectionCritique    Section = "critique"
	SectionCodeHeading Section = "code-heading"
	SectionCode        Section = "code"
)

// Metadata keys set on composed cells.
const (
	SectionKey = "section"
	TopicKey   = "topic"
)

const (
	critiqueHeading = "## 📝 Критический анализ"
	codeHeading     = "## 💻 Пример кода\n\nИллюстративный Python пример, демонстрирующий основные концепции:"
)

// Content is the material for one topic. Critique and Code are optional;
// blank values are treated as absent.
type Content struct {
	// Topic is the topic code recorded in cell metadata. Optional.
	Topic string
	// Title, when set, is prepended to the explanation as a heading.
	Title string

	Explanation string
	Critique    string
	Code        string
}

// HasReview reports whether c carries a critique or a code example.
func (c Content) HasReview() bool {
	return strings.TrimSpace(c.Critique) != "" || strings.TrimSpace(c.Code) != ""
}

// Compose returns the cells for c in section order: explanation, critique,
// code heading, code. The code heading only appears together with code.
func Compose(c Content) []Cell {
	source := c.Explanation
	if c.Title != "" {
		source = "# " + c.Title + "\n\n" + c.Explanation
	}
	cells := []Cell{tag(NewMarkdownCell(source), SectionExplanation, c.Topic)}
	return append(cells, reviewCells(c)...)
}

// reviewCells returns the critique and code sections of c, possibly none.
func reviewCells(c Content) []Cell {
	var cells []Cell
	if critique := strings.TrimSpace(c.Critique); critique != "" {
		cells = append(cells, tag(NewMarkdownCell(critiqueHeading+"\n\n"+critique), SectionCritique, c.Topic))
	}
	if code := strings.TrimSpace(c.Code); code != "" {
		cells = append(cells,
			tag(NewMarkdownCell(codeHeading), SectionCodeHeading, c.Topic),
			tag(NewCodeCell(code), SectionCode, c.Topic),
		)
	}
	return cells
}

func tag(c Cell, s Section, topic string) Cell {
	c.Metadata[SectionKey] = string(s)
	if topic != "" {
		c.Metadata[TopicKey] = topic
	}
	return c
}

// Kinds returns the section of every cell in nb, in order. Cells that were
// not composed by this package report an empty Section.
func Kinds(nb *Notebook) []Section {
	kinds := make([]Section, len(nb.Cells))
	for i, c := range nb.Cells {
		kinds[i] = sectionOf(c)
	}
	return kinds
}

func isReview(c Cell) bool {
	switch sectionOf(c) {
	case SectionCritique, SectionCodeHeading, SectionCode:
		return true
	}
	return false
}

func sectionOf(c Cell) Section {
	s, _ := c.Metadata[SectionKey].(string)
	return Section(s)
}

// topicOf returns the topic code recorded on c, if any.
func topicOf(c Cell) string {
	s, _ := c.Metadata[TopicKey].(string)
	return s
}
