// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches a generated summary and an investment commentary
// to one unprocessed paper per run. Both generations must succeed before
// anything is persisted; a failed attempt leaves the paper unprocessed so
// the next scheduled run retries it.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-tracker/pkg/types"
)

// ErrEmptyGeneration reports that the text provider returned no usable
// content. The attempt fails; nothing is persisted.
var ErrEmptyGeneration = errors.New("generation returned no usable content")

// Generator abstracts the text-generation provider so tests can supply a
// mock. One call produces one free-text completion, stored verbatim.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// PaperStore is the slice of the store contract the engine needs.
type PaperStore interface {
	NextUnprocessed(ctx context.Context) (*types.PaperRecord, error)
	MarkEnriched(ctx context.Context, providerID string, source types.Source, summary, commentary string) error
}

// Status classifies the outcome of an enrichment run.
type Status string

const (
	// StatusEnriched means both texts were generated and persisted.
	StatusEnriched Status = "enriched"

	// StatusNothingToDo means no unprocessed paper exists. A normal
	// outcome, not an error.
	StatusNothingToDo Status = "nothing_to_do"

	// StatusFailed means a generation call failed or returned empty
	// content; the paper stays unprocessed for the next run.
	StatusFailed Status = "failed"
)

// Result is the outcome of one enrichment run.
type Result struct {
	// Paper is the paper that was worked on, nil when nothing was pending.
	Paper *types.PaperRecord

	// Status classifies the run outcome.
	Status Status

	// Notes collects failure detail for logs.
	Notes []string
}

const (
	defaultSummaryMaxTokens    = 1000
	defaultCommentaryMaxTokens = 800
	defaultLanguage            = "English"
)

// Engine runs the two-stage enrichment workflow.
type Engine struct {
	Store     PaperStore
	Generator Generator
	Config    types.GenerationConfig
}

// EnrichNext enriches the oldest unprocessed paper: a summary generation
// followed by a commentary generation, then one atomic store update. No
// in-call retry; one attempt per scheduled run. The returned error covers
// misconfiguration only.
func (e *Engine) EnrichNext(ctx context.Context, w io.Writer) (Result, error) {
	if e.Store == nil || e.Generator == nil {
		return Result{}, fmt.Errorf("engine is missing a store or generator")
	}

	paper, err := e.Store.NextUnprocessed(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Notes: []string{err.Error()}}, nil
	}
	if paper == nil {
		fmt.Fprintln(w, "nothing to do: no unprocessed papers")
		return Result{Status: StatusNothingToDo}, nil
	}

	fmt.Fprintf(w, "enriching %q (%s/%s)\n", paper.Title, paper.Source, paper.ProviderID)

	summary, err := e.generate(ctx, summarySystem, summaryPromptTmpl, paper, e.summaryMaxTokens())
	if err != nil {
		fmt.Fprintf(w, "warning: summary generation failed: %v\n", err)
		return Result{Paper: paper, Status: StatusFailed, Notes: []string{err.Error()}}, nil
	}

	commentary, err := e.generate(ctx, commentarySystem, commentaryPromptTmpl, paper, e.commentaryMaxTokens())
	if err != nil {
		// No partial persistence: the summary is discarded with the run.
		fmt.Fprintf(w, "warning: commentary generation failed: %v\n", err)
		return Result{Paper: paper, Status: StatusFailed, Notes: []string{err.Error()}}, nil
	}

	if err := e.Store.MarkEnriched(ctx, paper.ProviderID, paper.Source, summary, commentary); err != nil {
		fmt.Fprintf(w, "warning: persisting enrichment failed: %v\n", err)
		return Result{Paper: paper, Status: StatusFailed, Notes: []string{err.Error()}}, nil
	}

	paper.Summary = summary
	paper.InvestmentCommentary = commentary
	paper.Processed = true

	fmt.Fprintf(w, "enriched %q\n", paper.Title)
	return Result{Paper: paper, Status: StatusEnriched}, nil
}

func (e *Engine) generate(ctx context.Context, system string, tmpl promptTemplate, paper *types.PaperRecord, maxTokens int) (string, error) {
	prompt, err := renderPrompt(tmpl, paper, e.language())
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := e.Generator.Generate(ctx, system, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

func (e *Engine) language() string {
	if e.Config.Language != "" {
		return e.Config.Language
	}
	return defaultLanguage
}

func (e *Engine) summaryMaxTokens() int {
	if e.Config.SummaryMaxTokens > 0 {
		return e.Config.SummaryMaxTokens
	}
	return defaultSummaryMaxTokens
}

func (e *Engine) commentaryMaxTokens() int {
	if e.Config.CommentaryMaxTokens > 0 {
		return e.Config.CommentaryMaxTokens
	}
	return defaultCommentaryMaxTokens
}
