// Package pipeline sequences extraction, analysis and remediation for one
// repository and owns the extraction root for the duration of the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/vulnforge/internal/extract"
	"github.com/ppiankov/vulnforge/internal/workspace"
)

// Stage names passed to Hooks.Stage.
const (
	StageExtracting  = "extracting"
	StageAnalyzing   = "analyzing"
	StageRemediating = "remediating"
)

// Extractor populates an extraction root from a repository reference.
type Extractor interface {
	Extract(ctx context.Context, ref, root string) (*extract.Result, error)
}

// Analyzer writes one report for an extraction root and returns its path.
type Analyzer interface {
	Analyze(ctx context.Context, root string) (string, error)
}

// Remediator derives a summary from a report and returns the summary path.
type Remediator interface {
	Generate(ctx context.Context, reportPath string) (string, error)
}

// Hooks are optional callbacks fired as the run progresses.
type Hooks struct {
	Stage     func(stage string)
	Extracted func(res *extract.Result)
}

// Result is the outcome of one run. ReportPath is set as soon as the report
// exists, even if remediation later fails.
type Result struct {
	RepoURL     string
	Extracted   int
	Bytes       int64
	ReportPath  string
	SummaryPath string
	Duration    time.Duration
}

// Orchestrator runs Extractor → Analyzer → Remediator against one root.
type Orchestrator struct {
	extractor  Extractor
	analyzer   Analyzer
	remediator Remediator
	root       string
	hooks      Hooks
}

// New creates an Orchestrator. remediator may be nil to skip the summary.
func New(ex Extractor, an Analyzer, rem Remediator, root string) *Orchestrator {
	return &Orchestrator{extractor: ex, analyzer: an, remediator: rem, root: root}
}

// WithHooks installs progress callbacks.
func (o *Orchestrator) WithHooks(h Hooks) *Orchestrator {
	o.hooks = h
	return o
}

// Run drives one repository through the pipeline. The extraction root is
// cleared before the run starts and again when it ends, whatever the
// outcome; a cleanup failure is joined into the returned error.
func (o *Orchestrator) Run(ctx context.Context, ref string) (res *Result, err error) {
	start := time.Now()
	res = &Result{RepoURL: ref}

	ws, err := workspace.Acquire(o.root)
	if err != nil {
		return res, err
	}
	defer func() {
		if relErr := ws.Release(); relErr != nil {
			err = errors.Join(err, relErr)
		}
		res.Duration = time.Since(start)
	}()

	o.stage(StageExtracting)
	ext, err := o.extractor.Extract(ctx, ref, ws.Path())
	if err != nil {
		return res, err
	}
	res.Extracted = ext.Count
	res.Bytes = ext.Bytes
	if o.hooks.Extracted != nil {
		o.hooks.Extracted(ext)
	}
	slog.Info("extracted code files", "count", ext.Count, "root", ext.Root)

	o.stage(StageAnalyzing)
	reportPath, err := o.analyzer.Analyze(ctx, ext.Root)
	if err != nil {
		return res, fmt.Errorf("analyze: %w", err)
	}
	res.ReportPath = reportPath

	if o.remediator == nil {
		return res, nil
	}
	o.stage(StageRemediating)
	summaryPath, err := o.remediator.Generate(ctx, reportPath)
	if err != nil {
		return res, err
	}
	res.SummaryPath = summaryPath
	return res, nil
}

func (o *Orchestrator) stage(name string) {
	slog.Debug("pipeline stage", "stage", name)
	if o.hooks.Stage != nil {
		o.hooks.Stage(name)
	}
}
