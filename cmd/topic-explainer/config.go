// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topic-explainer/internal/generate"
	"github.com/pdiddy/topic-explainer/internal/images"
	"github.com/pdiddy/topic-explainer/internal/progress"
	"github.com/pdiddy/topic-explainer/internal/secrets"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

const (
	defaultPrimaryModel   = "gemini-3-preview"
	defaultSecondaryModel = "gpt-4o"
	defaultPrimaryBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	imagesSubdir = "img"
)

// Prompt file names inside the prompts directory.
const (
	promptMainSystem   = "main_system_prompt.txt"
	promptMainUser     = "main_user_prompt.txt"
	promptCriticSystem = "critic_system_prompt.txt"
	promptCriticUser   = "critic_user_prompt.txt"
	promptCodeSystem   = "code_generation_system_prompt.txt"
	promptCodeUser     = "code_generation_prompt.txt"
)

// addOutputFlags registers the flags shared by every command that works on
// an outputs directory.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("outputs-dir", "outputs", "directory for notebooks, images, and progress files")
	cmd.Flags().String("progress-mode", "status", "progress tracking: status (per-code results) or codes (processed set)")
	cmd.Flags().String("results-backend", "json", "results store for status mode: json or sqlite")
}

// addModelFlags registers the model selection flags.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("prompts-dir", "prompts", "directory holding the prompt files")
	cmd.Flags().String("primary-model", defaultPrimaryModel, "model that writes the explanations")
	cmd.Flags().String("primary-base-url", defaultPrimaryBaseURL, "OpenAI-compatible endpoint of the primary model")
	cmd.Flags().String("secondary-model", defaultSecondaryModel, "model that writes critiques and code examples")
}

// buildConfig assembles the immutable run configuration from flags, the
// config file, the environment, and the loaded credentials. It is the only
// place that reads them.
func buildConfig(cmd *cobra.Command) (types.Config, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return types.Config{}, fmt.Errorf("binding flags: %w", err)
	}

	topicFormat, err := types.ParseTopicFormat(viper.GetString("topic-format"))
	if err != nil {
		return types.Config{}, err
	}
	outputMode, err := types.ParseOutputMode(viper.GetString("output-mode"))
	if err != nil {
		return types.Config{}, err
	}
	progressMode, err := types.ParseProgressMode(viper.GetString("progress-mode"))
	if err != nil {
		return types.Config{}, err
	}
	backend, err := types.ParseResultsBackend(viper.GetString("results-backend"))
	if err != nil {
		return types.Config{}, err
	}

	creds := loadedCredentials
	cfg := types.Config{
		TopicsFile:     viper.GetString("topics"),
		TopicFormat:    topicFormat,
		PromptsDir:     viper.GetString("prompts-dir"),
		OutputsDir:     viper.GetString("outputs-dir"),
		OutputMode:     outputMode,
		ProgressMode:   progressMode,
		ResultsBackend: backend,
		Explanation: types.ExplanationConfig{AIConfig: types.AIConfig{
			Model:   viper.GetString("primary-model"),
			APIKey:  creds.Get(secrets.GoogleAPIKey),
			BaseURL: viper.GetString("primary-base-url"),
			Timeout: durationSetting("explain-timeout", generate.DefaultExplainTimeout),
		}},
		Review: types.ReviewConfig{
			AIConfig: types.AIConfig{
				Model:   viper.GetString("secondary-model"),
				APIKey:  creds.Get(secrets.OpenAIAPIKey),
				BaseURL: viper.GetString("secondary-base-url"),
				Timeout: durationSetting("review-timeout", generate.DefaultReviewTimeout),
			},
			CritiqueTemperature: viper.GetFloat64("critique-temperature"),
			CodeTemperature:     viper.GetFloat64("code-temperature"),
		},
		Images: types.ImageConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationSetting("download-timeout", images.DefaultDownloadTimeout),
				UserAgent: viper.GetString("user-agent"),
			},
			APIKey:         creds.Get(secrets.GoogleSearchAPIKey),
			SearchEngineID: creds.Get(secrets.GoogleSearchEngineID),
			SearchTimeout:  durationSetting("search-timeout", images.DefaultSearchTimeout),
			MaxImages:      viper.GetInt("max-images"),
		},
		Capabilities: types.Capabilities{
			Review: creds.Has(secrets.OpenAIAPIKey) && !viper.GetBool("no-review"),
			Images: creds.Has(secrets.GoogleSearchAPIKey, secrets.GoogleSearchEngineID) && !viper.GetBool("no-images"),
		},
	}
	if cfg.OutputsDir == "" {
		return types.Config{}, fmt.Errorf("outputs directory must not be empty")
	}
	return cfg, nil
}

// prompts holds the prompt texts of one run.
type prompts struct {
	mainSystem, mainUser     string
	criticSystem, criticUser string
	codeSystem, codeUser     string
}

// readPrompts loads the primary prompts when primary is set and the
// critique and code prompts when review is set. Any missing file is fatal.
func readPrompts(dir string, primary, review bool) (prompts, error) {
	var p prompts
	files := []struct {
		name string
		dst  *string
		need bool
	}{
		{promptMainSystem, &p.mainSystem, primary},
		{promptMainUser, &p.mainUser, primary},
		{promptCriticSystem, &p.criticSystem, review},
		{promptCriticUser, &p.criticUser, review},
		{promptCodeSystem, &p.codeSystem, review},
		{promptCodeUser, &p.codeUser, review},
	}
	for _, f := range files {
		if !f.need {
			continue
		}
		text, err := readPrompt(dir, f.name)
		if err != nil {
			return prompts{}, err
		}
		*f.dst = text
	}
	return p, nil
}

func readPrompt(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt %s: %w", path, err)
	}
	return string(data), nil
}

// newReviewer builds the secondary generator from cfg.
func newReviewer(cfg types.Config, p prompts) (*generate.Reviewer, error) {
	backend, err := generate.NewOpenAIBackend(cfg.Review.AIConfig)
	if err != nil {
		return nil, fmt.Errorf("secondary model: %w", err)
	}
	return &generate.Reviewer{
		Backend:             backend,
		Model:               cfg.Review.Model,
		CritiqueSystem:      p.criticSystem,
		CritiqueTemplate:    p.criticUser,
		CodeSystem:          p.codeSystem,
		CodeTemplate:        p.codeUser,
		CritiqueTemperature: cfg.Review.CritiqueTemperature,
		CodeTemperature:     cfg.Review.CodeTemperature,
		Timeout:             cfg.Review.Timeout,
		Log:                 logger.With("stage", "review"),
	}, nil
}

// newFetcher builds the image fetcher from cfg.
func newFetcher(ctx context.Context, cfg types.Config, out io.Writer) (*images.Fetcher, error) {
	search, err := images.NewCustomSearch(ctx, cfg.Images.APIKey, cfg.Images.SearchEngineID)
	if err != nil {
		return nil, err
	}
	return &images.Fetcher{
		Searcher:        search,
		Client:          &http.Client{},
		Root:            filepath.Join(cfg.OutputsDir, imagesSubdir),
		MaxImages:       cfg.Images.MaxImages,
		SearchTimeout:   cfg.Images.SearchTimeout,
		DownloadTimeout: cfg.Images.Timeout,
		UserAgent:       cfg.Images.UserAgent,
		Log:             logger.With("stage", "images"),
		Out:             out,
	}, nil
}

// openTracker opens the progress store selected by cfg inside the outputs
// directory.
func openTracker(ctx context.Context, cfg types.Config) (progress.Tracker, error) {
	if err := os.MkdirAll(cfg.OutputsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", cfg.OutputsDir, err)
	}
	if cfg.ProgressMode == types.ProgressCodes {
		tracker, err := progress.OpenCodesTracker(filepath.Join(cfg.OutputsDir, progress.ProgressFile))
		if err != nil {
			return nil, err
		}
		return tracker, nil
	}

	var store progress.ResultStore
	if cfg.ResultsBackend == types.ResultsSQLite {
		s, err := progress.OpenSQLiteResults(filepath.Join(cfg.OutputsDir, progress.ResultsDB))
		if err != nil {
			return nil, err
		}
		store = s
	} else {
		store = progress.NewJSONResults(filepath.Join(cfg.OutputsDir, progress.ResultsFile))
	}
	tracker, err := progress.OpenStatusTracker(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return tracker, nil
}
