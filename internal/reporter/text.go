package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/vulnforge/internal/analyze"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// Summary is the outcome of one pipeline run as shown to the user.
type Summary struct {
	RepoURL     string
	Extracted   int
	Files       int
	Findings    int
	Failed      int // files whose model output was unusable
	ReportPath  string
	SummaryPath string
	Duration    time.Duration
}

// Tally counts analyzed files, real findings and sentineled files.
func Tally(records []Record) (files, findings, failed int) {
	for _, rec := range records {
		files++
		if len(rec.Findings) == 1 && cell(rec.Findings[0]["bug_type"]) == analyze.SentinelType {
			failed++
			continue
		}
		findings += len(rec.Findings)
	}
	return files, findings, failed
}

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(repoURL string) {
	fmt.Fprintf(r.w, "vulnforge — %s\n\n", repoURL)
}

// PrintExtracted reports the size of the extraction.
func (r *TextReporter) PrintExtracted(count int, bytes int64, root string) {
	if count == 0 {
		fmt.Fprintf(r.w, "  %sno code files found%s\n", r.c(colorYellow), r.c(colorReset))
		return
	}
	fmt.Fprintf(r.w, "  extracted %d files (%s) into %s\n\n", count, humanize.Bytes(uint64(bytes)), root)
}

// PrintProgress writes one line per analyzed file.
func (r *TextReporter) PrintProgress(p analyze.Progress) {
	counter := fmt.Sprintf("[%d/%d]", p.Index, p.Total)
	switch {
	case p.Failed:
		fmt.Fprintf(r.w, "  %s%-9s ✗ %s  (unusable model output)%s\n", r.c(colorRed), counter, p.File, r.c(colorReset))
	case p.Findings > 0:
		fmt.Fprintf(r.w, "  %s%-9s ! %s  %d %s%s\n", r.c(colorYellow), counter, p.File, p.Findings, plural(p.Findings, "finding"), r.c(colorReset))
	default:
		fmt.Fprintf(r.w, "  %s%-9s ✓ %s%s\n", r.c(colorGreen), counter, p.File, r.c(colorReset))
	}
}

// PrintSummary writes the final summary block.
func (r *TextReporter) PrintSummary(s Summary) {
	fmt.Fprintf(r.w, "\n%s--- Summary ---%s\n", r.c(colorCyan), r.c(colorReset))
	fmt.Fprintf(r.w, "Files: %d  ", s.Files)
	fmt.Fprintf(r.w, "%sFindings: %d%s  ", r.c(colorYellow), s.Findings, r.c(colorReset))
	if s.Failed > 0 {
		fmt.Fprintf(r.w, "%sUnparsed: %d%s  ", r.c(colorRed), s.Failed, r.c(colorReset))
	}
	if s.Duration > 0 {
		fmt.Fprintf(r.w, "Duration: %s", s.Duration.Truncate(time.Second))
	}
	fmt.Fprintln(r.w)
	if s.ReportPath != "" {
		fmt.Fprintf(r.w, "Report:  %s\n", s.ReportPath)
	}
	if s.SummaryPath != "" {
		fmt.Fprintf(r.w, "Summary: %s\n", s.SummaryPath)
	}
}

// PrintReports lists report files with their age and size.
func (r *TextReporter) PrintReports(reports []ReportInfo) {
	if len(reports) == 0 {
		fmt.Fprintf(r.w, "%sno reports%s\n", r.c(colorDim), r.c(colorReset))
		return
	}
	for _, rep := range reports {
		fmt.Fprintf(r.w, "  %-40s %10s  %s%s%s\n",
			rep.Name, humanize.Bytes(uint64(rep.Size)),
			r.c(colorDim), humanize.Time(rep.Modified), r.c(colorReset))
	}
}

// PrintTable writes the rendered findings table.
func (r *TextReporter) PrintTable(path string, rows []Row) {
	if path != "" {
		fmt.Fprintf(r.w, "%s%s%s\n\n", r.c(colorDim), path, r.c(colorReset))
	}
	fmt.Fprintln(r.w, RenderTable(rows))
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
