// Package remediation turns a vulnerability report into a short plain-text
// remediation summary.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/vulnforge/internal/analyze"
)

// Summary naming.
const (
	SummaryPrefix = "remediation_summary_"
	SummaryExt    = ".txt"
)

// Client is the text-completion capability used to write the summary.
type Client interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Generator writes remediation summaries into one directory.
type Generator struct {
	client Client
	dir    string
	now    func() time.Time
}

// New creates a Generator writing into dir.
func New(client Client, dir string) *Generator {
	return &Generator{client: client, dir: dir, now: time.Now}
}

// BuildPrompt wraps the raw report text in the summary instructions.
func BuildPrompt(reportText string) string {
	var b strings.Builder
	b.WriteString("Here are the list of bugs detected in the files: \n")
	b.WriteString(reportText)
	b.WriteString("\n\n")
	b.WriteString("Create a remediation summary of 250-300 words. ")
	b.WriteString("Make sure you highlight the total number of bugs and list the top 5 files that need to be remediated. ")
	b.WriteString("Return plain text only (no markdown, no bullets, no headings).")
	return b.String()
}

// Generate summarizes the report at reportPath and returns the summary path.
// The summary shares the report's timestamp.
func (g *Generator) Generate(ctx context.Context, reportPath string) (string, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("vulnerability report not found: %s", reportPath)
		}
		return "", fmt.Errorf("read report: %w", err)
	}

	slog.Info("generating remediation summary", "report", filepath.Base(reportPath))
	reply, err := g.client.Analyze(ctx, BuildPrompt(string(data)))
	if err != nil {
		return "", fmt.Errorf("remediation summary: %w", err)
	}

	absDir, err := filepath.Abs(g.dir)
	if err != nil {
		return "", fmt.Errorf("resolve summary dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}

	ts, ok := analyze.ReportTimestamp(reportPath)
	if !ok {
		ts = g.now().Format(analyze.TimestampLayout)
	}
	path := filepath.Join(absDir, SummaryName(ts))
	if err := os.WriteFile(path, []byte(strings.TrimSpace(reply)), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// SummaryName returns the summary file name for a report timestamp.
func SummaryName(timestamp string) string {
	return SummaryPrefix + timestamp + SummaryExt
}

// SummaryPath resolves the summary written for the named report. It returns
// false when the name is not a report name or no summary exists.
func SummaryPath(dir, reportName string) (string, bool) {
	if reportName != filepath.Base(reportName) {
		return "", false
	}
	ts, ok := analyze.ReportTimestamp(reportName)
	if !ok {
		return "", false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	path := filepath.Join(absDir, SummaryName(ts))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
