// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-explainer/internal/notebook"
	"github.com/pdiddy/topic-explainer/internal/pipeline"
	"github.com/pdiddy/topic-explainer/internal/secrets"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [notebooks...]",
	Short: "Add critiques and code examples to existing notebooks",
	Long: `Enhance re-reads notebooks that were written without a review, sends their
text to the secondary model for a critique and a code example, and appends
both sections to the notebook. Without arguments every notebook in the
outputs directory is considered. Notebooks that already carry a critique or
code section are skipped unless --force is given, in which case their review
sections are regenerated and replaced. The shared explanations notebook is
never enhanced.

Requires OPENAI_API_KEY.`,
	RunE: runEnhance,
}

func init() {
	enhanceCmd.Flags().String("outputs-dir", "outputs", "directory searched when no notebooks are given")
	enhanceCmd.Flags().String("prompts-dir", "prompts", "directory holding the prompt files")
	enhanceCmd.Flags().String("secondary-model", defaultSecondaryModel, "model that writes critiques and code examples")
	enhanceCmd.Flags().Bool("force", false, "enhance notebooks that already have review sections")

	rootCmd.AddCommand(enhanceCmd)
}

// enhanceResult holds the outcome of an enhance batch.
type enhanceResult struct {
	Enhanced  int
	Unchanged int
	Skipped   int
	Failed    int
}

func runEnhance(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := loadedCredentials.Require(secrets.OpenAIAPIKey); err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	paths, err := notebookPaths(args, cfg.OutputsDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no notebooks found in %s", cfg.OutputsDir)
	}

	p, err := readPrompts(cfg.PromptsDir, false, true)
	if err != nil {
		return err
	}
	reviewer, err := newReviewer(cfg, p)
	if err != nil {
		return err
	}

	res := enhanceBatch(cmd.Context(), reviewer, paths, force, cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "\nenhanced: %d, unchanged: %d, skipped: %d, failed: %d\n",
		res.Enhanced, res.Unchanged, res.Skipped, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d notebook(s) failed enhancement", res.Failed)
	}
	return nil
}

// enhanceBatch parses each notebook, generates the review from its primary
// markdown text, and appends it. With force, existing review sections are
// replaced.
func enhanceBatch(ctx context.Context, reviewer pipeline.Reviewer, paths []string, force bool, w io.Writer) enhanceResult {
	if ctx == nil {
		ctx = context.Background()
	}
	var res enhanceResult
	for _, path := range paths {
		if filepath.Base(path) == notebook.DefaultSharedName {
			fmt.Fprintf(w, "skipped: %s (shared notebook)\n", path)
			res.Skipped++
			continue
		}
		parsed, err := notebook.Parse(path)
		if err != nil {
			fmt.Fprintf(w, "failed: %s: %v\n", path, err)
			logger.Warn("parsing notebook failed", "path", path, "error", err)
			res.Failed++
			continue
		}
		if !force && hasReview(parsed.Notebook) {
			fmt.Fprintf(w, "skipped: %s (already reviewed)\n", path)
			res.Skipped++
			continue
		}

		fmt.Fprintf(w, "enhancing: %s (%d cells)\n", path, parsed.CellCount)
		topic := strings.TrimSuffix(filepath.Base(path), notebook.Extension)
		content := notebook.Content{Topic: topic}
		if critique, ok := reviewer.Critique(ctx, topic, parsed.Primary); ok {
			content.Critique = critique
		}
		if code, ok := reviewer.CodeExample(ctx, topic, parsed.Primary); ok {
			content.Code = code
		}
		if !content.HasReview() {
			fmt.Fprintf(w, "unchanged: %s (no critique or code generated)\n", path)
			res.Unchanged++
			continue
		}

		write := notebook.AppendSections
		if force {
			write = notebook.ReplaceSections
		}
		if err := write(path, content); err != nil {
			fmt.Fprintf(w, "failed: %s: %v\n", path, err)
			logger.Error("appending review failed", "path", path, "error", err)
			res.Failed++
			continue
		}
		fmt.Fprintf(w, "enhanced: %s\n", path)
		res.Enhanced++
	}
	return res
}

func hasReview(nb *notebook.Notebook) bool {
	for _, k := range notebook.Kinds(nb) {
		if k == notebook.SectionCritique || k == notebook.SectionCode {
			return true
		}
	}
	return false
}

// notebookPaths returns args, or every notebook in dir when args is empty.
func notebookPaths(args []string, dir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*"+notebook.Extension))
	if err != nil {
		return nil, fmt.Errorf("listing notebooks in %s: %w", dir, err)
	}
	return paths, nil
}
