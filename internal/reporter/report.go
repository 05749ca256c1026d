package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/vulnforge/internal/analyze"
)

// LegacyReportName is read when no timestamped report exists.
const LegacyReportName = "vulnerabilities.json"

// ErrNoReports is returned when a reports directory holds nothing to render.
var ErrNoReports = errors.New("no vulnerability reports found")

// Record is one report entry as stored on disk. Findings are kept loose so
// reports written by older versions still render.
type Record struct {
	File     string           `json:"file"`
	RepoName *string          `json:"repo_name"`
	RepoURL  *string          `json:"repo_url"`
	Findings []map[string]any `json:"findings"`
}

// UnmarshalJSON accepts any findings payload and keeps only object elements.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		File     any             `json:"file"`
		RepoName *string         `json:"repo_name"`
		RepoURL  *string         `json:"repo_url"`
		Findings json.RawMessage `json:"findings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.File = cell(raw.File)
	r.RepoName = raw.RepoName
	r.RepoURL = raw.RepoURL
	r.Findings = nil

	var items []any
	if len(raw.Findings) > 0 && json.Unmarshal(raw.Findings, &items) == nil {
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				r.Findings = append(r.Findings, m)
			}
		}
	}
	return nil
}

// ReportInfo describes one report file on disk.
type ReportInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// List returns the timestamped reports in dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]ReportInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var out []ReportInfo
	for _, e := range entries {
		if e.IsDir() || !analyze.IsReportName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ReportInfo{
			Name:     e.Name(),
			Path:     filepath.Join(absDir, e.Name()),
			Modified: info.ModTime(),
			Size:     info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Latest returns the path of the most recent report in dir. Timestamped
// names sort chronologically, so the greatest name wins; the legacy
// fixed name is used only when no timestamped report exists.
func Latest(dir string) (string, error) {
	reports, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(reports) > 0 {
		return reports[0].Path, nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	legacy := filepath.Join(absDir, LegacyReportName)
	if info, err := os.Stat(legacy); err == nil && info.Mode().IsRegular() {
		return legacy, nil
	}
	return "", fmt.Errorf("%w in %s", ErrNoReports, absDir)
}

// Find resolves a report by bare file name inside dir. An empty name means
// the latest report.
func Find(dir, name string) (string, error) {
	if name == "" {
		return Latest(dir)
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(absDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNoReports, name)
	}
	return path, nil
}

// Load reads the records of one report.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// LoadLatest loads the most recent report in dir and returns its path too.
func LoadLatest(dir string) (string, []Record, error) {
	path, err := Latest(dir)
	if err != nil {
		return "", nil, err
	}
	records, err := Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, records, nil
}

// Row is one finding flattened for display.
type Row struct {
	FileName    string `json:"file_name"`
	BugType     string `json:"bug_type"`
	BugName     string `json:"bug_name"`
	BugPriority string `json:"bug_priority"`
	FileLines   string `json:"file_lines"`
}

// Flatten emits one row per finding. A finding without a file_name takes
// the record's file.
func Flatten(records []Record) []Row {
	var rows []Row
	for _, rec := range records {
		for _, f := range rec.Findings {
			file := rec.File
			if v, ok := f["file_name"]; ok && v != nil {
				file = cell(v)
			}
			rows = append(rows, Row{
				FileName:    file,
				BugType:     cell(f["bug_type"]),
				BugName:     cell(f["bug_name"]),
				BugPriority: cell(f["bug_priority"]),
				FileLines:   cell(f["file_lines"]),
			})
		}
	}
	return rows
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
