package reporter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mustWriteFile is a test helper that writes a file or fails the test.
func mustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestLatest_PicksGreatestTimestamp(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"vulnerabilities_20250101000000.json",
		"vulnerabilities_20260418093000.json",
		"vulnerabilities_20251231235959.json",
		"vulnerabilities.json",
		"vulnerabilities_99999999999999.json.bak",
		"notes.txt",
	} {
		mustWriteFile(t, filepath.Join(dir, name), []byte("[]"))
	}

	got, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "vulnerabilities_20260418093000.json" {
		t.Errorf("Latest() = %s", filepath.Base(got))
	}
}

func TestLatest_LegacyFallback(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, LegacyReportName), []byte("[]"))

	got, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != LegacyReportName {
		t.Errorf("Latest() = %s, want legacy report", got)
	}
}

func TestLatest_None(t *testing.T) {
	for _, dir := range []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		if _, err := Latest(dir); !errors.Is(err, ErrNoReports) {
			t.Errorf("Latest(%s) err = %v, want ErrNoReports", dir, err)
		}
	}
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "vulnerabilities_20260101000000.json"), []byte("[]"))
	mustWriteFile(t, filepath.Join(dir, "vulnerabilities_20260301000000.json"), []byte("[1]"))
	mustWriteFile(t, filepath.Join(dir, "vulnerabilities_20260201000000.json"), []byte("[]"))

	list, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	want := []string{"20260301", "20260201", "20260101"}
	for i, r := range list {
		if !strings.Contains(r.Name, want[i]) {
			t.Errorf("list[%d] = %s, want %s", i, r.Name, want[i])
		}
	}
	if list[0].Size != 3 {
		t.Errorf("size = %d, want 3", list[0].Size)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "vulnerabilities_20260101000000.json"), []byte("[]"))

	if _, err := Find(dir, "vulnerabilities_20260101000000.json"); err != nil {
		t.Errorf("existing report: %v", err)
	}
	if _, err := Find(dir, "vulnerabilities_20270101000000.json"); !errors.Is(err, ErrNoReports) {
		t.Errorf("unknown report err = %v", err)
	}
	for _, name := range []string{"../secret.json", "a/b.json", "..", `..\x.json`} {
		if _, err := Find(dir, name); err == nil {
			t.Errorf("Find(%q) should be rejected", name)
		}
	}
	if got, err := Find(dir, ""); err != nil || filepath.Base(got) != "vulnerabilities_20260101000000.json" {
		t.Errorf("Find(\"\") = %s, %v", got, err)
	}
}

func TestLoad_TolerantFindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulnerabilities_20260101000000.json")
	mustWriteFile(t, path, []byte(`[
		{"file": "a.py", "repo_name": "app", "repo_url": "https://github.com/acme/app",
		 "findings": [{"bug_type": "XSS", "bug_name": "reflected", "bug_priority": "High", "file_lines": 12}]},
		{"file": "b.py", "repo_name": null, "repo_url": null, "findings": {"unexpected": true}},
		{"file": "c.py", "findings": ["junk", {"bug_type": "Crypto"}]}
	]`))

	recs, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0].RepoName == nil || *recs[0].RepoName != "app" {
		t.Errorf("repo name = %v", recs[0].RepoName)
	}
	if len(recs[1].Findings) != 0 {
		t.Errorf("non-list findings should be ignored, got %v", recs[1].Findings)
	}
	if len(recs[2].Findings) != 1 {
		t.Errorf("non-object findings should be ignored, got %v", recs[2].Findings)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulnerabilities_20260101000000.json")
	mustWriteFile(t, path, []byte(`{not json`))
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFlatten_Defaults(t *testing.T) {
	recs := []Record{
		{File: "src/a.py", Findings: []map[string]any{
			{"bug_type": "Injection", "bug_name": "SQLi", "bug_priority": "High", "file_lines": "4-9"},
			{"file_name": "src/a.py", "bug_type": "Secrets"},
		}},
		{File: "src/b.py", Findings: nil},
		{File: "src/c.py", Findings: []map[string]any{
			{"file_name": nil, "bug_type": "Crypto", "file_lines": float64(7)},
		}},
	}

	rows := Flatten(recs)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].FileName != "src/a.py" {
		t.Errorf("missing file_name should fall back to record file, got %q", rows[0].FileName)
	}
	if rows[1].BugName != "" || rows[1].BugPriority != "" || rows[1].FileLines != "" {
		t.Errorf("missing fields should be empty: %+v", rows[1])
	}
	if rows[2].FileName != "src/c.py" || rows[2].FileLines != "7" {
		t.Errorf("row = %+v", rows[2])
	}
}
