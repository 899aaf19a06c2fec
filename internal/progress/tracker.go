// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"fmt"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

// Tracker decides resumption and records terminal outcomes. Record
// persists immediately with a full rewrite.
type Tracker interface {
	// Done reports whether code needs no further processing.
	Done(code string) bool

	// Record stores the outcome for code. An invalid status returns
	// types.ErrInvalidStatus and changes nothing.
	Record(ctx context.Context, code, model string, status types.Status) error

	// Completed returns the number of codes considered done.
	Completed() int

	// Location names the backing file for the run summary.
	Location() string

	Close() error
}

// CodesTracker keeps the set-of-processed-codes progress file. Only
// successes are recorded; a failed topic stays eligible for the next run.
type CodesTracker struct {
	path     string
	progress types.Progress
}

// OpenCodesTracker loads the progress file at path.
func OpenCodesTracker(path string) (*CodesTracker, error) {
	p, err := LoadProgress(path)
	if err != nil {
		return nil, err
	}
	return &CodesTracker{path: path, progress: p}, nil
}

func (c *CodesTracker) Done(code string) bool {
	return c.progress.Contains(code)
}

func (c *CodesTracker) Record(_ context.Context, code, _ string, status types.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	if status != types.StatusSuccess {
		return nil
	}
	c.progress.Mark(code)
	return SaveProgress(c.path, c.progress)
}

func (c *CodesTracker) Completed() int { return len(c.progress.ProcessedTopics) }

func (c *CodesTracker) Location() string { return c.path }

func (c *CodesTracker) Close() error { return nil }

// StatusTracker keeps the per-code status map. A code is done once its
// record says success; failures are retried on the next run and their
// record is overwritten.
type StatusTracker struct {
	store   ResultStore
	results Results
}

// OpenStatusTracker loads the whole map from store.
func OpenStatusTracker(ctx context.Context, store ResultStore) (*StatusTracker, error) {
	r, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusTracker{store: store, results: r}, nil
}

func (s *StatusTracker) Done(code string) bool {
	rec, ok := s.results[code]
	return ok && rec.Status == types.StatusSuccess
}

func (s *StatusTracker) Record(ctx context.Context, code, model string, status types.Status) error {
	if !s.results.Update(code, model, string(status)) {
		return fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	if err := s.store.Save(ctx, s.results); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	return nil
}

func (s *StatusTracker) Completed() int { return s.results.Count(types.StatusSuccess) }

func (s *StatusTracker) Location() string { return s.store.Location() }

func (s *StatusTracker) Close() error { return s.store.Close() }

// Results returns the in-memory map. Callers must not mutate it.
func (s *StatusTracker) Results() Results { return s.results }
