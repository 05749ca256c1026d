package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Report naming.
const (
	ReportPrefix    = "vulnerabilities_"
	ReportExt       = ".json"
	TimestampLayout = "20060102150405"
)

var reportNameRe = regexp.MustCompile(`^vulnerabilities_(\d{14})\.json$`)

// ReportName returns the file name of a report created at t.
func ReportName(t time.Time) string {
	return ReportPrefix + t.Format(TimestampLayout) + ReportExt
}

// ReportTimestamp extracts the 14-digit timestamp from a report file name.
func ReportTimestamp(name string) (string, bool) {
	m := reportNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// maxNameAttempts bounds how far the timestamp is advanced past a taken name.
const maxNameAttempts = 120

// writeReport stores records in a new file under dir. Existing reports are
// never overwritten: a taken name moves the timestamp forward a second.
func writeReport(dir string, records []Record, now time.Time) (string, error) {
	if records == nil {
		records = []Record{}
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve reports dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	for i := 0; i < maxNameAttempts; i++ {
		path := filepath.Join(absDir, ReportName(now.Add(time.Duration(i)*time.Second)))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report: %w", err)
		}
		_, writeErr := f.Write(data)
		closeErr := f.Close()
		if err := errors.Join(writeErr, closeErr); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write report: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free report name in %s after %d attempts", absDir, maxNameAttempts)
}

// IsReportName reports whether name follows the timestamped report pattern.
func IsReportName(name string) bool {
	return reportNameRe.MatchString(name)
}
