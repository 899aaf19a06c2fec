package types

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "topic-explainer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a chat-completion API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-3-preview", "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API. Never serialized.
	APIKey string `json:"-" yaml:"-"`

	// BaseURL overrides the API endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds one completion request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ExplanationConfig holds settings for the primary model.
type ExplanationConfig struct {
	AIConfig `yaml:",inline"`
}

// ReviewConfig holds settings for the secondary model used for critique
// and code examples.
type ReviewConfig struct {
	AIConfig `yaml:",inline"`

	// CritiqueTemperature is the sampling temperature for critiques (default 0.2).
	CritiqueTemperature float64 `json:"critique_temperature" yaml:"critique_temperature"`

	// CodeTemperature is the sampling temperature for code examples (default 0.2).
	CodeTemperature float64 `json:"code_temperature" yaml:"code_temperature"`
}

// ImageConfig holds settings for the image fetcher.
type ImageConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the search API key. Never serialized.
	APIKey string `json:"-" yaml:"-"`

	// SearchEngineID is the Custom Search engine identifier (cx).
	SearchEngineID string `json:"-" yaml:"-"`

	// SearchTimeout bounds the search request (default 30s).
	SearchTimeout time.Duration `json:"search_timeout" yaml:"search_timeout"`

	// MaxImages caps the number of results requested per topic (default 1).
	MaxImages int `json:"max_images" yaml:"max_images"`
}

// OutputMode selects how notebooks are written.
type OutputMode string

const (
	// OutputPerTopic writes one notebook per topic, named after its code.
	OutputPerTopic OutputMode = "per-topic"

	// OutputShared appends every topic to one growing notebook.
	OutputShared OutputMode = "shared"
)

// ProgressMode selects which progress scheme decides resumption.
type ProgressMode string

const (
	// ProgressCodes keeps a set of processed codes in progress.json.
	ProgressCodes ProgressMode = "codes"

	// ProgressStatus keeps a code → {model, status, last_updated} map.
	ProgressStatus ProgressMode = "status"
)

// ResultsBackend selects the storage of the per-code status map.
type ResultsBackend string

const (
	ResultsJSON   ResultsBackend = "json"
	ResultsSQLite ResultsBackend = "sqlite"
)

// ParseOutputMode validates an output mode name; empty means per-topic.
func ParseOutputMode(s string) (OutputMode, error) {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case OutputPerTopic, OutputShared:
		return m, nil
	case "":
		return OutputPerTopic, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want per-topic or shared)", s)
	}
}

// ParseProgressMode validates a progress mode name; empty means status.
func ParseProgressMode(s string) (ProgressMode, error) {
	switch m := ProgressMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ProgressCodes, ProgressStatus:
		return m, nil
	case "":
		return ProgressStatus, nil
	default:
		return "", fmt.Errorf("unknown progress mode %q (want codes or status)", s)
	}
}

// ParseResultsBackend validates a results backend name; empty means json.
func ParseResultsBackend(s string) (ResultsBackend, error) {
	switch b := ResultsBackend(strings.ToLower(strings.TrimSpace(s))); b {
	case ResultsJSON, ResultsSQLite:
		return b, nil
	case "":
		return ResultsJSON, nil
	default:
		return "", fmt.Errorf("unknown results backend %q (want json or sqlite)", s)
	}
}

// Capabilities are the run-wide optional stages, computed once at startup
// from credential presence and flags.
type Capabilities struct {
	// Review enables the critique and code-example stage.
	Review bool `json:"review" yaml:"review"`

	// Images enables the image fetcher.
	Images bool `json:"images" yaml:"images"`
}

// Config is the immutable configuration of one run. It is built once in
// the CLI layer and passed to every component that needs a piece of it.
type Config struct {
	// TopicsFile is the path of the topic source.
	TopicsFile string `json:"topics_file" yaml:"topics_file"`

	// TopicFormat selects the topic record shape.
	TopicFormat TopicFormat `json:"topic_format" yaml:"topic_format"`

	// PromptsDir holds the system and user prompt files.
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir"`

	// OutputsDir is the root for notebooks, images, and progress files.
	OutputsDir string `json:"outputs_dir" yaml:"outputs_dir"`

	OutputMode     OutputMode     `json:"output_mode" yaml:"output_mode"`
	ProgressMode   ProgressMode   `json:"progress_mode" yaml:"progress_mode"`
	ResultsBackend ResultsBackend `json:"results_backend" yaml:"results_backend"`

	Explanation ExplanationConfig `json:"explanation" yaml:"explanation"`
	Review      ReviewConfig      `json:"review" yaml:"review"`
	Images      ImageConfig       `json:"images" yaml:"images"`

	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
}
