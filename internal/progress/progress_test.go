// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

// --- progress.json ---

func TestLoadProgressMissingFile(t *testing.T) {
	p, err := LoadProgress(filepath.Join(t.TempDir(), ProgressFile))
	require.NoError(t, err)
	assert.Empty(t, p.ProcessedTopics)
	assert.Equal(t, 0, p.LastIndex)
}

func TestProgressRoundTripIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProgressFile)
	p := types.Progress{}
	p.Mark("prf")
	p.Mark("dpr")
	p.Mark("prf")
	require.NoError(t, SaveProgress(path, p))

	first, err := LoadProgress(path)
	require.NoError(t, err)
	require.NoError(t, SaveProgress(path, first))
	second, err := LoadProgress(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"prf", "dpr"}, second.ProcessedTopics)
	assert.Equal(t, 2, second.LastIndex)
}

func TestProgressFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProgressFile)
	require.NoError(t, SaveProgress(path, types.Progress{ProcessedTopics: []string{"a"}, LastIndex: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"processed_topics": ["a"], "last_index": 1}`, string(data))
}

func TestLoadProgressCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProgressFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadProgress(path)
	require.Error(t, err)
}

// --- results ---

func TestResultsUpdate(t *testing.T) {
	r := Results{}
	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.True(t, r.UpdateAt("colbert", "gemini-3-preview", "success", t0))
	require.True(t, r.UpdateAt("rag", "gemini-3-preview", "failed", t0))
	require.Len(t, r, 2)

	t1 := t0.Add(time.Minute)
	require.True(t, r.UpdateAt("colbert", "gpt-4o", "failed", t1))
	assert.Len(t, r, 2)
	assert.Equal(t, types.ResultRecord{Model: "gpt-4o", Status: types.StatusFailed, LastUpdated: t1}, r["colbert"])
}

func TestResultsUpdateRejectsUnknownStatus(t *testing.T) {
	r := Results{}
	r.Update("a", "m", "success")
	before := len(r)

	assert.False(t, r.Update("test", "model", "bogus"))
	assert.False(t, r.Update("a", "model", "SUCCESS"))
	assert.Len(t, r, before)
	assert.Equal(t, types.StatusSuccess, r["a"].Status)
}

func TestResultsUpdateStampsTime(t *testing.T) {
	r := Results{}
	before := time.Now().UTC()
	r.Update("a", "m", "success")
	assert.False(t, r["a"].LastUpdated.Before(before))
}

func TestResultsCount(t *testing.T) {
	r := Results{}
	r.Update("a", "m", "success")
	r.Update("b", "m", "failed")
	r.Update("c", "m", "success")
	assert.Equal(t, 2, r.Count(types.StatusSuccess))
	assert.Equal(t, 1, r.Count(types.StatusFailed))
	assert.Equal(t, []string{"a", "b", "c"}, r.Codes())
}

func resultStores(t *testing.T) map[string]ResultStore {
	t.Helper()
	dir := t.TempDir()
	sq, err := OpenSQLiteResults(filepath.Join(dir, ResultsDB))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]ResultStore{
		"json":   NewJSONResults(filepath.Join(dir, ResultsFile)),
		"sqlite": sq,
	}
}

func TestResultStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			r := Results{}
			r.UpdateAt("prf", "gemini-3-preview", "success", time.Date(2025, 5, 1, 10, 0, 0, 123000, time.UTC))
			r.UpdateAt("dpr", "gemini-3-preview", "failed", time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC))
			require.NoError(t, store.Save(ctx, r))

			first, err := store.Load(ctx)
			require.NoError(t, err)
			require.NoError(t, store.Save(ctx, first))
			second, err := store.Load(ctx)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			require.Len(t, second, 2)
			assert.Equal(t, types.StatusSuccess, second["prf"].Status)
			assert.Equal(t, types.StatusFailed, second["dpr"].Status)
			assert.True(t, second["prf"].LastUpdated.Equal(r["prf"].LastUpdated))

			delete(second, "dpr")
			require.NoError(t, store.Save(ctx, second))
			third, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, third, 1)
		})
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSQLiteResultsReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, ResultsDB)

	sq, err := OpenSQLiteResults(path)
	require.NoError(t, err)
	r := Results{}
	r.UpdateAt("prf", "gemini-3-preview", "success", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, sq.Save(ctx, r))
	require.NoError(t, sq.Close())

	before := dirNames(t, dir)
	ro, err := OpenSQLiteResultsReadOnly(path)
	require.NoError(t, err)
	got, err := ro.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prf"}, got.Codes())
	assert.Error(t, ro.Save(ctx, Results{}), "read-only handle refuses writes")
	require.NoError(t, ro.Close())
	assert.Equal(t, before, dirNames(t, dir), "no files created")

	_, err = OpenSQLiteResultsReadOnly(filepath.Join(dir, "missing.db"))
	assert.Error(t, err)
	assert.Equal(t, before, dirNames(t, dir))
}

func TestJSONResultsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResultsFile)
	store := NewJSONResults(path)
	r := Results{}
	r.UpdateAt("prf", "gemini-3-preview", "success", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(context.Background(), r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prf": {"model": "gemini-3-preview", "status": "success", "last_updated": "2025-05-01T10:00:00Z"}}`, string(data))
}

func TestJSONResultsDropsInvalidStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResultsFile)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"a": {"model": "m", "status": "success", "last_updated": "2025-05-01T10:00:00Z"},
		"b": {"model": "m", "status": "pending", "last_updated": "2025-05-01T10:00:00Z"}
	}`), 0o644))

	r, err := NewJSONResults(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, r.Codes())
}

// --- processing.log ---

func TestProcessingLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFile)
	log := NewProcessingLog(path)

	entries := []types.LogEntry{
		{Topic: "Pseudo-Relevance Feedback", Model: "gemini-3-preview", TokenCount: 1234, Status: types.StatusSuccess},
		{Topic: "Deep Passage Retrieval", Model: "gemini-3-preview", TokenCount: 2345, Status: types.StatusSuccess},
		{Topic: "ColBERT", Model: "gemini-3-preview", TokenCount: 0, Status: types.StatusFailed},
	}
	for _, e := range entries {
		require.NoError(t, log.Append(e))
	}

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	for _, line := range lines {
		parts := strings.Split(line, "\t")
		require.Len(t, parts, 5)
		_, err := time.Parse(time.RFC3339Nano, parts[0])
		assert.NoError(t, err)
	}
	assert.True(t, strings.HasSuffix(lines[2], "\tColBERT\tgemini-3-preview\t0\tfailed"))

	require.NoError(t, log.Append(types.LogEntry{Topic: "Test Topic", Model: "test-model", TokenCount: 999, Status: types.StatusSuccess}))
	assert.Len(t, readLines(t, path), 4)
}

func TestProcessingLogRejectsInvalidStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFile)
	log := NewProcessingLog(path)
	require.NoError(t, log.Append(types.LogEntry{Topic: "Test", Model: "model", TokenCount: 100, Status: types.StatusSuccess}))

	err := log.Append(types.LogEntry{Topic: "Test", Model: "model", TokenCount: 100, Status: "invalid_status"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidStatus))
	assert.Len(t, readLines(t, path), 1)
}

func TestProcessingLogSanitizesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFile)
	require.NoError(t, NewProcessingLog(path).Append(types.LogEntry{
		Topic: "multi\tfield\nlabel", Model: "m", Status: types.StatusFailed,
	}))
	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Len(t, strings.Split(lines[0], "\t"), 5)
}

func TestReadLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFile)
	log := NewProcessingLog(path)
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, log.Append(types.LogEntry{Timestamp: ts, Topic: "a", Model: "m", TokenCount: 10, Status: types.StatusSuccess}))
	require.NoError(t, log.Append(types.LogEntry{Timestamp: ts, Topic: "b", Model: "m", Status: types.StatusFailed}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	f.WriteString("garbage line\n")
	f.Close()

	entries, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Topic)
	assert.Equal(t, int64(10), entries[0].TokenCount)
	assert.Equal(t, types.StatusFailed, entries[1].Status)

	none, err := ReadLog(filepath.Join(t.TempDir(), "missing.log"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

// --- trackers ---

func TestCodesTracker(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ProgressFile)

	tr, err := OpenCodesTracker(path)
	require.NoError(t, err)
	assert.False(t, tr.Done("a"))

	require.NoError(t, tr.Record(ctx, "a", "m", types.StatusSuccess))
	require.NoError(t, tr.Record(ctx, "b", "m", types.StatusFailed))
	assert.True(t, tr.Done("a"))
	assert.False(t, tr.Done("b"))
	assert.Equal(t, 1, tr.Completed())

	err = tr.Record(ctx, "c", "m", "bogus")
	assert.ErrorIs(t, err, types.ErrInvalidStatus)

	reopened, err := OpenCodesTracker(path)
	require.NoError(t, err)
	assert.True(t, reopened.Done("a"))
	assert.Equal(t, 1, reopened.Completed())

	onDisk, err := LoadProgress(path)
	require.NoError(t, err)
	assert.Equal(t, types.Progress{ProcessedTopics: []string{"a"}, LastIndex: 1}, onDisk)
}

func TestStatusTracker(t *testing.T) {
	ctx := context.Background()
	for name, store := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			tr, err := OpenStatusTracker(ctx, store)
			require.NoError(t, err)

			require.NoError(t, tr.Record(ctx, "a", "gemini", types.StatusSuccess))
			require.NoError(t, tr.Record(ctx, "b", "gemini", types.StatusFailed))
			assert.True(t, tr.Done("a"))
			assert.False(t, tr.Done("b"), "failed topics are retried")

			err = tr.Record(ctx, "c", "gemini", "bogus")
			assert.ErrorIs(t, err, types.ErrInvalidStatus)
			assert.Len(t, tr.Results(), 2)

			reopened, err := OpenStatusTracker(ctx, store)
			require.NoError(t, err)
			assert.True(t, reopened.Done("a"))
			assert.Equal(t, 1, reopened.Completed())
			assert.Equal(t, types.StatusFailed, reopened.Results()["b"].Status)
		})
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
