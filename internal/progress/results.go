// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

// Results maps a topic code to its latest outcome.
type Results map[string]types.ResultRecord

// Update upserts the record for code stamped with the current time. An
// unrecognized status leaves r unchanged and returns false.
func (r Results) Update(code, model, status string) bool {
	return r.UpdateAt(code, model, status, time.Now().UTC())
}

// UpdateAt is Update with an explicit timestamp.
func (r Results) UpdateAt(code, model, status string, at time.Time) bool {
	st, err := types.ParseStatus(status)
	if err != nil {
		return false
	}
	r[code] = types.ResultRecord{
		Model:       model,
		Status:      st,
		LastUpdated: at,
	}
	return true
}

// Codes returns the codes in sorted order.
func (r Results) Codes() []string {
	codes := make([]string, 0, len(r))
	for c := range r {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Count returns the number of records with the given status.
func (r Results) Count(status types.Status) int {
	n := 0
	for _, rec := range r {
		if rec.Status == status {
			n++
		}
	}
	return n
}

// ResultStore loads and rewrites the whole status map.
type ResultStore interface {
	Load(ctx context.Context) (Results, error)
	Save(ctx context.Context, r Results) error
	Location() string
	Close() error
}

// JSONResults stores the status map as a pretty-printed JSON object.
type JSONResults struct {
	path string
}

// NewJSONResults returns a store backed by the JSON file at path.
func NewJSONResults(path string) *JSONResults {
	return &JSONResults{path: path}
}

// Load reads the file. A missing file yields an empty map. Records with
// an unrecognized status are dropped.
func (j *JSONResults) Load(_ context.Context) (Results, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Results{}, nil
		}
		return nil, fmt.Errorf("reading results %s: %w", j.path, err)
	}

	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", j.path, err)
	}
	if r == nil {
		r = Results{}
	}
	for code, rec := range r {
		if !rec.Status.Valid() {
			delete(r, code)
		}
	}
	return r, nil
}

// Save rewrites the file with the full map.
func (j *JSONResults) Save(_ context.Context, r Results) error {
	if r == nil {
		r = Results{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return fsutil.WriteFile(j.path, append(data, '\n'), 0o644)
}

// Location returns the file path.
func (j *JSONResults) Location() string { return j.path }

// Close is a no-op.
func (j *JSONResults) Close() error { return nil }
