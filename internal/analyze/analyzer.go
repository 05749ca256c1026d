package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/vulnforge/internal/manifest"
)

// ErrRootNotFound is returned when the extraction root does not exist.
var ErrRootNotFound = errors.New("extraction root not found")

// Client is the text-completion capability the Analyzer depends on.
type Client interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Progress describes one analyzed file.
type Progress struct {
	Index    int // 1-based
	Total    int
	File     string
	Findings int
	Failed   bool // reply was sentineled
}

// Options controls analyzer behavior.
type Options struct {
	ReportsDir string
	MaxFiles   int // 0 = no cap
	Observer   func(Progress)
	Now        func() time.Time
}

// Analyzer submits every extracted file to the completion client and writes
// one report per run.
type Analyzer struct {
	client Client
	opts   Options
}

// New creates an Analyzer bound to client.
func New(client Client, opts Options) *Analyzer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{client: client, opts: opts}
}

// Analyze reviews the files under root and returns the path of the new
// report. A bad reply for one file is recorded as a sentinel finding and
// the run continues; only a cancelled context stops it early.
func (a *Analyzer) Analyze(ctx context.Context, root string) (string, error) {
	records, err := a.Records(ctx, root)
	if err != nil {
		return "", err
	}
	path, err := writeReport(a.opts.ReportsDir, records, a.opts.Now())
	if err != nil {
		return "", err
	}
	slog.Info("wrote vulnerability report", "path", path, "records", len(records))
	return path, nil
}

// Records runs the analysis without persisting it.
func (a *Analyzer) Records(ctx context.Context, root string) ([]Record, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve extraction root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
	}

	files, err := CodeFiles(absRoot)
	if err != nil {
		return nil, fmt.Errorf("list code files: %w", err)
	}
	if a.opts.MaxFiles > 0 && len(files) > a.opts.MaxFiles {
		slog.Info("limiting analysis", "eligible", len(files), "max_num_files", a.opts.MaxFiles)
		files = files[:a.opts.MaxFiles]
	}

	mapper := manifest.NewMapper(absRoot)
	records := make([]Record, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := a.analyzeFile(ctx, mapper, path)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, rec)

		if a.opts.Observer != nil {
			failed := len(rec.Findings) == 1 && rec.Findings[0].IsSentinel()
			a.opts.Observer(Progress{
				Index:    i + 1,
				Total:    len(files),
				File:     rec.File,
				Findings: len(rec.Findings),
				Failed:   failed,
			})
		}
	}
	return records, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, mapper *manifest.Mapper, path string) Record {
	loc := mapper.Resolve(path)
	rec := Record{File: loc.RepoPath, RepoName: loc.RepoName, RepoURL: loc.OriginURL}

	slog.Info("analyzing file", "file", loc.RepoPath)
	code, err := readLenient(path)
	if err != nil {
		slog.Warn("cannot read file", "file", loc.RepoPath, "error", err)
		rec.Findings = []Finding{sentinel(loc.RepoPath, SentinelRequestError)}
		return rec
	}

	reply, err := a.client.Analyze(ctx, BuildPrompt(loc.RepoPath, code))
	if err != nil {
		slog.Warn("analysis request failed", "file", loc.RepoPath, "error", err)
		rec.Findings = []Finding{sentinel(loc.RepoPath, SentinelRequestError)}
		return rec
	}

	findings, err := parseFindings(reply, loc.RepoPath)
	if err != nil {
		slog.Warn("unusable model output", "file", loc.RepoPath, "error", err)
		rec.Findings = []Finding{sentinel(loc.RepoPath, SentinelInvalidJSON)}
		return rec
	}
	rec.Findings = findings
	return rec
}
