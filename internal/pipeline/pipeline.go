// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the per-topic stages of a run: images,
// explanation, review, assembly, and recording. Topics are processed one at
// a time; a failure inside a topic is logged, recorded, and counted, and
// the loop moves on.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/topic-explainer/internal/generate"
	"github.com/pdiddy/topic-explainer/internal/logging"
	"github.com/pdiddy/topic-explainer/internal/notebook"
	"github.com/pdiddy/topic-explainer/internal/progress"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

// Explainer produces the primary text for a query.
type Explainer interface {
	Explain(ctx context.Context, query string) (generate.Explanation, bool)
}

// Reviewer produces the optional critique and code example.
type Reviewer interface {
	Critique(ctx context.Context, topic, explanation string) (string, bool)
	CodeExample(ctx context.Context, topic, explanation string) (string, bool)
}

// ImageFetcher saves images for a topic and returns their directory.
type ImageFetcher interface {
	Fetch(ctx context.Context, code, imageQuery string) (string, bool)
}

// Assembler writes the document of a topic.
type Assembler interface {
	Assemble(t types.Topic, c notebook.Content) (string, bool)
}

// Runner holds the collaborators of one run.
type Runner struct {
	Topics  []types.Topic
	Tracker progress.Tracker
	Log     *progress.ProcessingLog

	// Capabilities gates the optional stages. Images and Reviewer are
	// only called when the matching capability is on.
	Capabilities types.Capabilities
	Images       ImageFetcher
	Explainer    Explainer
	Reviewer     Reviewer
	Assembler    Assembler

	// Model is the primary model identifier written to the log and store.
	Model string

	// OutputDir is reported in the summary.
	OutputDir string

	// Out receives one line per stage transition. Nil discards them.
	Out    io.Writer
	Logger *logging.Logger
}

// WorkList returns the topics the tracker does not consider done, in
// source order.
func WorkList(topics []types.Topic, tracker progress.Tracker) []types.Topic {
	work := make([]types.Topic, 0, len(topics))
	for _, t := range topics {
		if !tracker.Done(t.Code) {
			work = append(work, t)
		}
	}
	return work
}

// Run processes every pending topic. A cancelled context stops the loop
// before the next topic starts; everything already recorded stays valid.
func (r *Runner) Run(ctx context.Context) Summary {
	log := logging.OrNop(r.Logger)
	out := r.out()

	work := WorkList(r.Topics, r.Tracker)
	sum := Summary{
		Total:     len(r.Topics),
		Skipped:   len(r.Topics) - len(work),
		OutputDir: r.OutputDir,
		Progress:  r.Tracker.Location(),
	}
	fmt.Fprintf(out, "topics: %d total, %d already done, %d to process\n", sum.Total, sum.Skipped, len(work))
	log.Info("run started", "total", sum.Total, "skipped", sum.Skipped, "pending", len(work))

	for i, t := range work {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(out, "interrupted: %d topic(s) left for the next run\n", len(work)-i)
			log.Warn("run interrupted", "remaining", len(work)-i, "error", err)
			sum.Interrupted = true
			break
		}

		fmt.Fprintf(out, "[%d/%d] %s: %s\n", i+1, len(work), t.Code, t.DetailedQuery)
		res := r.processTopic(ctx, t)
		if res.images {
			sum.ImagesFetched++
		}
		if !res.state.Terminal() {
			log.Warn("topic stopped before a terminal state", "code", t.Code, "state", res.state)
		}
		if res.state == StateRecorded {
			sum.Processed++
		} else {
			sum.Failed++
			sum.FailedCodes = append(sum.FailedCodes, t.Code)
		}
	}

	log.Info("run finished", "processed", sum.Processed, "failed", sum.Failed, "images", sum.ImagesFetched)
	return sum
}

// topicResult is the outcome of one topic.
type topicResult struct {
	state  State
	images bool
}

func (r *Runner) processTopic(ctx context.Context, t types.Topic) topicResult {
	log := logging.OrNop(r.Logger).With("code", t.Code)
	var res topicResult

	r.enter(&res, StatePending, "")

	if r.Capabilities.Images && r.Images != nil {
		if dir, ok := r.Images.Fetch(ctx, t.Code, t.ImageQuery); ok {
			res.images = true
			r.enter(&res, StateImagesFetched, dir)
		} else {
			r.enter(&res, StateImagesFetched, "none")
		}
	}

	exp, ok := r.Explainer.Explain(ctx, t.DetailedQuery)
	if !ok {
		r.enter(&res, StateExplainFailed, "")
		r.finish(ctx, t, types.StatusFailed, 0)
		return res
	}
	r.enter(&res, StateExplained, fmt.Sprintf("%d tokens", exp.TotalTokens))

	content := notebook.Content{Explanation: exp.Text}
	if r.Capabilities.Review && r.Reviewer != nil {
		if critique, ok := r.Reviewer.Critique(ctx, t.DetailedQuery, exp.Text); ok {
			content.Critique = critique
			r.enter(&res, StateCritiqued, "")
		}
		if code, ok := r.Reviewer.CodeExample(ctx, t.DetailedQuery, exp.Text); ok {
			content.Code = code
			r.enter(&res, StateCodeGenerated, "")
		}
	}

	path, ok := r.Assembler.Assemble(t, content)
	if !ok {
		r.enter(&res, StateWriteFailed, "")
		r.finish(ctx, t, types.StatusFailed, exp.TotalTokens)
		return res
	}
	r.enter(&res, StateAssembled, path)

	if r.finish(ctx, t, types.StatusSuccess, exp.TotalTokens) {
		r.enter(&res, StateRecorded, "")
	} else {
		log.Warn("document written but outcome not recorded; topic will be processed again", "path", path)
	}
	return res
}

// finish appends the log line and records the outcome. It reports whether
// the tracker persisted it.
func (r *Runner) finish(ctx context.Context, t types.Topic, status types.Status, tokens int64) bool {
	log := logging.OrNop(r.Logger).With("code", t.Code)

	if r.Log != nil {
		entry := types.LogEntry{Topic: t.Code, Model: r.Model, TokenCount: tokens, Status: status}
		if err := r.Log.Append(entry); err != nil {
			log.Error("appending processing log failed", "error", err)
		}
	}
	// Recording must not be skipped when the run is being cancelled.
	if err := r.Tracker.Record(context.WithoutCancel(ctx), t.Code, r.Model, status); err != nil {
		log.Error("recording outcome failed", "status", status, "error", err)
		return false
	}
	return true
}

func (r *Runner) enter(res *topicResult, s State, detail string) {
	res.state = s
	if s == StatePending {
		return
	}
	if detail != "" {
		fmt.Fprintf(r.out(), "  %s: %s\n", s, detail)
		return
	}
	fmt.Fprintf(r.out(), "  %s\n", s)
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}
