// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-explainer/internal/progress"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded progress and recent processing attempts",
	Long: `Status reads the progress files in the outputs directory (progress.json,
results.json or results.db, and processing.log) and prints what has been
done so far. It never modifies them.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("outputs-dir", "outputs", "directory holding the progress files")
	statusCmd.Flags().Int("tail", 10, "number of processing log lines to show")
	statusCmd.Flags().Bool("yaml", false, "print the report as YAML")

	rootCmd.AddCommand(statusCmd)
}

// statusReport is the content of the status command.
type statusReport struct {
	OutputsDir string `yaml:"outputs_dir"`

	Processed []string `yaml:"processed,omitempty"`

	ResultsFile string         `yaml:"results_file,omitempty"`
	Succeeded   int            `yaml:"succeeded"`
	Failed      []string       `yaml:"failed,omitempty"`
	Models      map[string]int `yaml:"models,omitempty"`

	LogAttempts int              `yaml:"log_attempts"`
	LogTail     []types.LogEntry `yaml:"log_tail,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("outputs-dir")
	tail, _ := cmd.Flags().GetInt("tail")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	report, err := buildStatus(cmd.Context(), dir, tail)
	if err != nil {
		return err
	}
	if asYAML {
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(report)
	}
	printStatus(cmd.OutOrStdout(), report)
	return nil
}

func buildStatus(ctx context.Context, dir string, tail int) (statusReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := statusReport{OutputsDir: dir}

	p, err := progress.LoadProgress(filepath.Join(dir, progress.ProgressFile))
	if err != nil {
		return r, err
	}
	r.Processed = p.ProcessedTopics

	results, location, err := loadAnyResults(ctx, dir)
	if err != nil {
		return r, err
	}
	r.ResultsFile = location
	r.Succeeded = results.Count(types.StatusSuccess)
	for _, code := range results.Codes() {
		rec := results[code]
		if rec.Status == types.StatusFailed {
			r.Failed = append(r.Failed, code)
		}
		if r.Models == nil {
			r.Models = map[string]int{}
		}
		r.Models[rec.Model]++
	}

	entries, err := progress.ReadLog(filepath.Join(dir, progress.LogFile))
	if err != nil {
		return r, err
	}
	r.LogAttempts = len(entries)
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	if tail > 0 {
		r.LogTail = entries
	}
	return r, nil
}

// loadAnyResults reads the SQLite results when present, else the JSON file.
// Neither existing yields empty results.
func loadAnyResults(ctx context.Context, dir string) (progress.Results, string, error) {
	dbPath := filepath.Join(dir, progress.ResultsDB)
	if _, err := os.Stat(dbPath); err == nil {
		db, err := progress.OpenSQLiteResultsReadOnly(dbPath)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()
		res, err := db.Load(ctx)
		return res, dbPath, err
	}

	jsonPath := filepath.Join(dir, progress.ResultsFile)
	res, err := progress.NewJSONResults(jsonPath).Load(ctx)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(jsonPath); statErr != nil {
		jsonPath = ""
	}
	return res, jsonPath, nil
}

func printStatus(w io.Writer, r statusReport) {
	fmt.Fprintf(w, "outputs: %s\n", r.OutputsDir)
	if len(r.Processed) > 0 {
		fmt.Fprintf(w, "progress.json: %d processed\n", len(r.Processed))
	}
	if r.ResultsFile != "" {
		fmt.Fprintf(w, "%s: %d succeeded, %d failed\n", filepath.Base(r.ResultsFile), r.Succeeded, len(r.Failed))
		if len(r.Failed) > 0 {
			fmt.Fprintf(w, "  failed: %v\n", r.Failed)
		}
		models := make([]string, 0, len(r.Models))
		for m := range r.Models {
			models = append(models, m)
		}
		sort.Strings(models)
		for _, m := range models {
			fmt.Fprintf(w, "  model %s: %d\n", m, r.Models[m])
		}
	}
	fmt.Fprintf(w, "processing log: %d attempts\n", r.LogAttempts)
	for _, e := range r.LogTail {
		fmt.Fprintf(w, "  %s  %-8s %-24s %6d tokens  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Status, e.Topic, e.TokenCount, e.Model)
	}
}
