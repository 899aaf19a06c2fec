// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate wraps the chat-completion calls of the pipeline: the
// primary explanation and the secondary critique and code example.
//
// Every exported generator turns failures into absence: it logs the cause
// and returns ok == false. Nothing here retries.
package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

// ErrEmptyCompletion is returned when the API answered without usable text.
var ErrEmptyCompletion = errors.New("completion has no content")

// ChatRequest is one system + user exchange.
type ChatRequest struct {
	Model  string
	System string
	User   string

	// Temperature is sent only when non-nil.
	Temperature *float64
}

// ChatResponse is the first choice of a completion and its token usage.
type ChatResponse struct {
	Text        string
	TotalTokens int64
}

// ChatBackend abstracts the chat-completion API so tests can supply a fake.
type ChatBackend interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// OpenAIBackend calls an OpenAI-compatible chat-completion endpoint
// through the official SDK. The primary model is reached through the
// Gemini OpenAI-compatible base URL, the secondary through OpenAI itself.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend builds a backend from cfg. The SDK's own retries are
// disabled: every call is a single attempt.
func NewOpenAIBackend(cfg types.AIConfig, extra ...option.RequestOption) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key missing")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)
	return &OpenAIBackend{client: openai.NewClient(opts...)}, nil
}

// Complete sends one request and returns the first choice.
func (o *OpenAIBackend) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, ErrEmptyCompletion
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return ChatResponse{}, ErrEmptyCompletion
	}
	return ChatResponse{Text: text, TotalTokens: resp.Usage.TotalTokens}, nil
}

// RenderPrompt substitutes the {topic} and {content} placeholders of a
// user-prompt template. Other braces are left alone.
func RenderPrompt(template, topic, content string) string {
	return strings.NewReplacer("{topic}", topic, "{content}", content).Replace(template)
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
