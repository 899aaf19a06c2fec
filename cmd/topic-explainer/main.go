// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the topic-explainer CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topic-explainer/internal/generate"
	"github.com/pdiddy/topic-explainer/internal/images"
	"github.com/pdiddy/topic-explainer/internal/logging"
	"github.com/pdiddy/topic-explainer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedCredentials holds the API keys resolved at startup.
	loadedCredentials secrets.Credentials

	// logger is built from the root flags before any subcommand runs.
	logger = logging.Nop()

	// runID tags every log entry and the run summary of one invocation.
	runID = uuid.NewString()
)

// rootCmd is the base command for the topic-explainer CLI.
var rootCmd = &cobra.Command{
	Use:   "topic-explainer",
	Short: "Batch-generate technical explanations as Jupyter notebooks",
	Long: `topic-explainer reads a list of topics, asks an LLM to explain each one,
optionally critiques the explanation and adds a code example with a second
model, optionally fetches an illustrative image, and writes everything into
Jupyter notebooks.

Runs are resumable: finished topics are recorded and skipped next time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := logging.New(logMode(format), verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l.With("run_id", runID)

		envFile, _ := cmd.Flags().GetString("env-file")
		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		creds, err := secrets.Resolve(secrets.Sources{
			LookupEnv: os.LookupEnv,
			DotEnv:    envFile,
			Dir:       secretsDir,
		})
		if err != nil {
			return err
		}
		loadedCredentials = creds

		var found []string
		for _, name := range []string{secrets.GoogleAPIKey, secrets.OpenAIAPIKey, secrets.GoogleSearchAPIKey, secrets.GoogleSearchEngineID} {
			if creds.Has(name) {
				found = append(found, name)
				logger.Debug("credential loaded", "name", name, "source", creds.Source(name))
			}
		}
		if len(found) > 0 {
			sort.Strings(found)
			fmt.Fprintf(os.Stderr, "Loaded credentials: %v\n", found)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./topic-explainer.yaml or ~/.config/topic-explainer/topic-explainer.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with credentials")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("topic-explainer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "topic-explainer"))
		}
	}

	viper.SetEnvPrefix("TOPIC_EXPLAINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("outputs-dir", "TOPIC_EXPLAINER_OUTPUTS_DIR", "OUTPUTS_DIR")

	// Settings without a flag; a config file or the environment may set them.
	viper.SetDefault("explain-timeout", generate.DefaultExplainTimeout)
	viper.SetDefault("review-timeout", generate.DefaultReviewTimeout)
	viper.SetDefault("search-timeout", images.DefaultSearchTimeout)
	viper.SetDefault("download-timeout", images.DefaultDownloadTimeout)
	viper.SetDefault("critique-temperature", generate.DefaultReviewTemperature)
	viper.SetDefault("code-temperature", generate.DefaultReviewTemperature)
	viper.SetDefault("secondary-base-url", "")
	viper.SetDefault("user-agent", "topic-explainer/"+version)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func logMode(format string) string {
	if format == "json" {
		return "production"
	}
	return "dev"
}

// durationSetting reads a duration from viper, falling back to def when the
// value is unset or not positive.
func durationSetting(key string, def time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return def
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
