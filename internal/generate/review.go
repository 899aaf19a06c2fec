// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/topic-explainer/internal/logging"
)

const (
	// DefaultReviewTimeout bounds each critique or code-example request.
	DefaultReviewTimeout = 2 * time.Minute

	// DefaultReviewTemperature is used for both secondary calls.
	DefaultReviewTemperature = 0.2
)

const (
	pythonFence = "```python"
	plainFence  = "```"
)

// Reviewer runs the two secondary calls on an existing explanation.
// Templates may contain {topic} and {content} placeholders.
type Reviewer struct {
	Backend ChatBackend
	Model   string

	CritiqueSystem   string
	CritiqueTemplate string
	CodeSystem       string
	CodeTemplate     string

	CritiqueTemperature float64
	CodeTemperature     float64

	Timeout time.Duration
	Log     *logging.Logger
}

// Critique asks the secondary model to critique explanation. Blank or
// failed responses are absence.
func (r *Reviewer) Critique(ctx context.Context, topic, explanation string) (string, bool) {
	text, ok := r.complete(ctx, "critique", r.CritiqueSystem, r.CritiqueTemplate, r.CritiqueTemperature, topic, explanation)
	if !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// CodeExample asks the secondary model for illustrative source code.
// Markdown fences around the code are removed.
func (r *Reviewer) CodeExample(ctx context.Context, topic, explanation string) (string, bool) {
	text, ok := r.complete(ctx, "code", r.CodeSystem, r.CodeTemplate, r.CodeTemperature, topic, explanation)
	if !ok {
		return "", false
	}
	code := StripCodeFence(text)
	return code, code != ""
}

func (r *Reviewer) complete(ctx context.Context, kind, system, template string, temperature float64, topic, explanation string) (string, bool) {
	log := logging.OrNop(r.Log)
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultReviewTimeout
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	temp := temperature
	resp, err := r.Backend.Complete(ctx, ChatRequest{
		Model:       r.Model,
		System:      system,
		User:        RenderPrompt(template, topic, explanation),
		Temperature: &temp,
	})
	if err != nil {
		log.Warn("secondary generation failed", "kind", kind, "model", r.Model, "topic", topic, "error", err)
		return "", false
	}
	log.Debug("secondary generation done", "kind", kind, "model", r.Model, "total_tokens", resp.TotalTokens)
	return resp.Text, true
}

// StripCodeFence removes a leading "```python" or "```" marker and a
// trailing "```" marker. Text without markers is only trimmed.
func StripCodeFence(s string) string {
	code := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(code, pythonFence):
		code = strings.TrimSpace(code[len(pythonFence):])
	case strings.HasPrefix(code, plainFence):
		code = strings.TrimSpace(code[len(plainFence):])
	}
	if strings.HasSuffix(code, plainFence) {
		code = strings.TrimSpace(code[:len(code)-len(plainFence)])
	}
	return code
}
