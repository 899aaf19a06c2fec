// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

// ProcessingLog is the append-only audit trail of processing attempts.
// Each line is "timestamp\ttopic\tmodel\ttoken_count\tstatus".
type ProcessingLog struct {
	Path string
}

// NewProcessingLog returns a log appending to path.
func NewProcessingLog(path string) *ProcessingLog {
	return &ProcessingLog{Path: path}
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// Append writes one line for e. An invalid status is refused with
// types.ErrInvalidStatus and nothing is written. A zero timestamp is
// replaced with the current time.
func (l *ProcessingLog) Append(e types.LogEntry) error {
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidStatus, e.Status)
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	line := strings.Join([]string{
		ts.Format(time.RFC3339Nano),
		fieldCleaner.Replace(e.Topic),
		fieldCleaner.Replace(e.Model),
		strconv.FormatInt(e.TokenCount, 10),
		string(e.Status),
	}, "\t") + "\n"

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening processing log: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("writing processing log: %w", err)
	}
	return f.Close()
}

// ReadLog parses the log at path. Lines that do not have five fields are
// skipped. A missing file yields no entries.
func ReadLog(path string) ([]types.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening processing log: %w", err)
	}
	defer f.Close()

	var entries []types.LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), "\t")
		if len(parts) != 5 {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, parts[0])
		if err != nil {
			continue
		}
		tokens, _ := strconv.ParseInt(parts[3], 10, 64)
		st, err := types.ParseStatus(parts[4])
		if err != nil {
			continue
		}
		entries = append(entries, types.LogEntry{
			Timestamp:  ts,
			Topic:      parts[1],
			Model:      parts[2],
			TokenCount: tokens,
			Status:     st,
		})
	}
	return entries, sc.Err()
}
