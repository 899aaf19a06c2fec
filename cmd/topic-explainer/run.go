// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-explainer/internal/generate"
	"github.com/pdiddy/topic-explainer/internal/notebook"
	"github.com/pdiddy/topic-explainer/internal/pipeline"
	"github.com/pdiddy/topic-explainer/internal/progress"
	"github.com/pdiddy/topic-explainer/internal/secrets"
	"github.com/pdiddy/topic-explainer/internal/topics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate notebooks for every pending topic",
	Long: `Run reads the topic file and processes every topic that is not yet done:
it fetches images (when search credentials are set), generates the
explanation, adds a critique and a code example (when OPENAI_API_KEY is set),
and writes the notebook. Each outcome is recorded immediately, so an
interrupted run continues where it stopped.

Per-topic failures are reported in the summary and do not change the exit
status; a missing credential, prompt, or topic file does.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topics", "topics.txt", "topic source file")
	runCmd.Flags().String("topic-format", "triple", "topic line format: triple (code;query;image query) or single")
	runCmd.Flags().String("output-mode", "per-topic", "notebook layout: per-topic or shared")
	runCmd.Flags().Int("max-images", 1, "images to download per topic")
	runCmd.Flags().Bool("no-images", false, "skip image fetching")
	runCmd.Flags().Bool("no-review", false, "skip critique and code examples")
	addOutputFlags(runCmd)
	addModelFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := loadedCredentials.Require(secrets.GoogleAPIKey); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	p, err := readPrompts(cfg.PromptsDir, true, cfg.Capabilities.Review)
	if err != nil {
		return err
	}

	parsed, err := topics.ReadFile(cfg.TopicsFile, cfg.TopicFormat)
	if err != nil {
		return err
	}
	for _, issue := range parsed.Issues {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", cfg.TopicsFile, issue)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := openTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer tracker.Close()

	backend, err := generate.NewOpenAIBackend(cfg.Explanation.AIConfig)
	if err != nil {
		return fmt.Errorf("primary model: %w", err)
	}

	runner := &pipeline.Runner{
		Topics:       parsed.Topics,
		Tracker:      tracker,
		Log:          progress.NewProcessingLog(filepath.Join(cfg.OutputsDir, progress.LogFile)),
		Capabilities: cfg.Capabilities,
		Explainer: &generate.Explainer{
			Backend:      backend,
			Model:        cfg.Explanation.Model,
			SystemPrompt: p.mainSystem,
			UserTemplate: p.mainUser,
			Timeout:      cfg.Explanation.Timeout,
			Log:          logger.With("stage", "explain"),
		},
		Assembler: &notebook.Assembler{
			Mode: cfg.OutputMode,
			Dir:  cfg.OutputsDir,
			Log:  logger.With("stage", "assemble"),
		},
		Model:     cfg.Explanation.Model,
		OutputDir: cfg.OutputsDir,
		Out:       out,
		Logger:    logger,
	}

	if cfg.Capabilities.Review {
		reviewer, err := newReviewer(cfg, p)
		if err != nil {
			return err
		}
		runner.Reviewer = reviewer
	} else {
		fmt.Fprintln(out, "review disabled: critiques and code examples are skipped")
	}

	if cfg.Capabilities.Images {
		fetcher, err := newFetcher(ctx, cfg, out)
		if err != nil {
			return err
		}
		runner.Images = fetcher
	} else {
		fmt.Fprintln(out, "image search disabled: images are skipped")
	}

	logger.Info("configuration",
		"topics", cfg.TopicsFile,
		"outputs", cfg.OutputsDir,
		"output_mode", cfg.OutputMode,
		"progress_mode", cfg.ProgressMode,
		"review", cfg.Capabilities.Review,
		"images", cfg.Capabilities.Images,
	)

	sum := runner.Run(ctx)
	sum.RunID = runID
	sum.Print(out)

	if path, err := pipeline.WriteSummary(cfg.OutputsDir, sum); err != nil {
		logger.Warn("writing run summary failed", "error", err)
	} else {
		fmt.Fprintf(out, "summary: %s\n", path)
	}
	return nil
}
