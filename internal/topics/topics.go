// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics parses the topic source file into Topic records.
//
// Each non-blank line that does not start with '#' is one record. In the
// triple format a record is "code;detailed_query;image_query"; in the single
// format the whole line is the topic. Malformed lines are reported as issues
// and skipped; only an unreadable file is an error.
package topics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

const (
	delimiter     = ";"
	commentPrefix = "#"
	fieldCount    = 3

	// MaxFilenameLength caps the length, in runes, of a sanitized code.
	MaxFilenameLength = 100
)

// LineIssue describes a skipped line.
type LineIssue struct {
	Line   int
	Reason string
	Text   string
}

func (i LineIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Reason, preview(i.Text, 60))
}

// ParseResult holds the records and the skipped lines of one source.
type ParseResult struct {
	Topics []types.Topic
	Issues []LineIssue
}

// ReadFile opens path and parses it. Failing to open or read the file is
// the only error.
func ReadFile(path string, format types.TopicFormat) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("opening topics file %s: %w", path, err)
	}
	defer f.Close()

	res, err := Parse(f, format)
	if err != nil {
		return ParseResult{}, fmt.Errorf("reading topics file %s: %w", path, err)
	}
	return res, nil
}

// Parse reads records from r. Codes must be unique; a repeated code is
// reported and the first occurrence is kept.
func Parse(r io.Reader, format types.TopicFormat) (ParseResult, error) {
	var res ParseResult
	seen := make(map[string]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		raw := sc.Text()
		if lineNum == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		topic, reason := parseLine(line, format)
		if reason != "" {
			res.Issues = append(res.Issues, LineIssue{Line: lineNum, Reason: reason, Text: line})
			continue
		}
		if first, dup := seen[topic.Code]; dup {
			res.Issues = append(res.Issues, LineIssue{
				Line:   lineNum,
				Reason: fmt.Sprintf("duplicate code %q (first seen on line %d)", topic.Code, first),
				Text:   line,
			})
			continue
		}
		seen[topic.Code] = lineNum
		res.Topics = append(res.Topics, topic)
	}
	if err := sc.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func parseLine(line string, format types.TopicFormat) (types.Topic, string) {
	if format == types.TopicFormatSingle {
		t, err := types.NewTopic(SanitizeFilename(line), line, line)
		if err != nil {
			return types.Topic{}, err.Error()
		}
		return t, ""
	}

	parts := strings.Split(line, delimiter)
	if len(parts) != fieldCount {
		return types.Topic{}, fmt.Sprintf("expected %d fields, got %d", fieldCount, len(parts))
	}
	t, err := types.NewTopic(parts[0], parts[1], parts[2])
	if err != nil {
		return types.Topic{}, err.Error()
	}
	// Codes name files and directories.
	if t.Code != SanitizeFilename(t.Code) || t.Code == "." || t.Code == ".." {
		return types.Topic{}, fmt.Sprintf("code %q is not a valid file name", t.Code)
	}
	return t, ""
}

// unsafeFilenameChars are replaced with '_' by SanitizeFilename.
const unsafeFilenameChars = `/\:*?"<>|`

// SanitizeFilename makes a free-text topic usable as a file key: path
// separators and reserved characters become '_' and the result is
// truncated to MaxFilenameLength runes.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == MaxFilenameLength {
			break
		}
		if strings.ContainsRune(unsafeFilenameChars, r) || r < 0x20 {
			r = '_'
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

func preview(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
