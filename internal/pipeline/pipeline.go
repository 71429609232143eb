// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wraps the acquisition and enrichment steps behind a
// uniform report so scheduled entry points never have to distinguish
// operational failures from exceptional ones.
package pipeline

import (
	"context"
	"io"
	"strings"

	"github.com/pdiddy/research-tracker/internal/coordinate"
	"github.com/pdiddy/research-tracker/internal/enrich"
	"github.com/pdiddy/research-tracker/pkg/types"
)

// Status classifies a pipeline step for the caller's exit contract.
type Status string

const (
	// StatusSuccess means the step did work: a paper was selected or
	// enriched.
	StatusSuccess Status = "success"

	// StatusNoOp means the step ran cleanly but had nothing to do.
	StatusNoOp Status = "no_op"

	// StatusFailure means the step could not complete. The process should
	// exit non-zero so the scheduler flags the run.
	StatusFailure Status = "failure"
)

// Report is the structured outcome of one pipeline step. Steps never
// return errors; every outcome, including provider and store failures,
// is folded in here.
type Report struct {
	// Operation names the step, "acquisition" or "enrichment".
	Operation string

	// Status classifies the outcome.
	Status Status

	// Paper is the paper the step worked on, nil for no-ops and for
	// failures before a paper was chosen.
	Paper *types.PaperRecord

	// Detail is a human-readable outcome line for logs.
	Detail string
}

// Failed reports whether the step should make the process exit non-zero.
func (r Report) Failed() bool { return r.Status == StatusFailure }

// Driver runs the scheduled pipeline steps.
type Driver struct {
	Coordinator *coordinate.Coordinator
	Engine      *enrich.Engine

	Keywords []string
	MinYear  int

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer
}

func (d *Driver) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return io.Discard
}

// RunAcquisition runs one acquisition cycle and folds the outcome into a
// Report. It never returns an error to the caller.
func (d *Driver) RunAcquisition(ctx context.Context) Report {
	rep := Report{Operation: "acquisition"}

	if d.Coordinator == nil {
		rep.Status = StatusFailure
		rep.Detail = "no coordinator configured"
		return rep
	}

	res, err := d.Coordinator.AcquireOne(ctx, d.Keywords, d.MinYear, d.out())
	if err != nil {
		rep.Status = StatusFailure
		rep.Detail = err.Error()
		return rep
	}

	switch res.Status {
	case coordinate.StatusSelected:
		rep.Status = StatusSuccess
		rep.Paper = res.Selected
		rep.Detail = "selected " + res.Selected.Title
	case coordinate.StatusNoNewPapers:
		rep.Status = StatusNoOp
		rep.Detail = "no new papers"
	default:
		rep.Status = StatusFailure
		rep.Detail = joinNotes(res.Notes, "acquisition failed")
	}
	return rep
}

// RunEnrichment runs one enrichment cycle and folds the outcome into a
// Report. It never returns an error to the caller.
func (d *Driver) RunEnrichment(ctx context.Context) Report {
	rep := Report{Operation: "enrichment"}

	if d.Engine == nil {
		rep.Status = StatusFailure
		rep.Detail = "no enrichment engine configured"
		return rep
	}

	res, err := d.Engine.EnrichNext(ctx, d.out())
	if err != nil {
		rep.Status = StatusFailure
		rep.Detail = err.Error()
		return rep
	}

	switch res.Status {
	case enrich.StatusEnriched:
		rep.Status = StatusSuccess
		rep.Paper = res.Paper
		rep.Detail = "enriched " + res.Paper.Title
	case enrich.StatusNothingToDo:
		rep.Status = StatusNoOp
		rep.Detail = "nothing to enrich"
	default:
		rep.Status = StatusFailure
		rep.Paper = res.Paper
		rep.Detail = joinNotes(res.Notes, "enrichment failed")
	}
	return rep
}

func joinNotes(notes []string, fallback string) string {
	if len(notes) == 0 {
		return fallback
	}
	return strings.Join(notes, "; ")
}
