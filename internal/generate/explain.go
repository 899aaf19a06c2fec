// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"time"

	"github.com/pdiddy/topic-explainer/internal/logging"
)

// DefaultExplainTimeout bounds one explanation request. Generation of a
// long explanation routinely takes minutes.
const DefaultExplainTimeout = 15 * time.Minute

// Explanation is the primary text generated for a topic.
type Explanation struct {
	Text        string
	TotalTokens int64
}

// Explainer produces the primary explanation of a topic.
type Explainer struct {
	Backend      ChatBackend
	Model        string
	SystemPrompt string

	// UserTemplate may contain a {topic} placeholder for the query text.
	UserTemplate string

	Timeout time.Duration
	Log     *logging.Logger
}

// Explain issues one request for query. Any failure (transport error,
// non-200 response, no choices, empty content) is logged and reported as
// absence.
func (e *Explainer) Explain(ctx context.Context, query string) (Explanation, bool) {
	log := logging.OrNop(e.Log)
	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultExplainTimeout
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.Backend.Complete(ctx, ChatRequest{
		Model:  e.Model,
		System: e.SystemPrompt,
		User:   RenderPrompt(e.UserTemplate, query, ""),
	})
	if err != nil {
		log.Error("explanation failed", "model", e.Model, "query", query, "error", err)
		return Explanation{}, false
	}

	log.Info("explanation generated",
		"model", e.Model,
		"total_tokens", resp.TotalTokens,
		"chars", len(resp.Text),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return Explanation{Text: resp.Text, TotalTokens: resp.TotalTokens}, true
}
