package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/vulnforge/internal/extract"
)

type fakeExtractor struct {
	files []string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, root string) (*extract.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, name := range f.files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			return nil, err
		}
	}
	return &extract.Result{Root: root, Count: len(f.files), Bytes: int64(len(f.files))}, nil
}

type fakeAnalyzer struct {
	seen []string // files visible under root when Analyze ran
	err  error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, root string) (string, error) {
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		f.seen = append(f.seen, e.Name())
	}
	if f.err != nil {
		return "", f.err
	}
	return "/reports/vulnerabilities_20260101000000.json", nil
}

type fakeRemediator struct {
	report string
	err    error
}

func (f *fakeRemediator) Generate(_ context.Context, reportPath string) (string, error) {
	f.report = reportPath
	if f.err != nil {
		return "", f.err
	}
	return "/summaries/remediation_summary_20260101000000.txt", nil
}

func assertAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("extraction root %s still exists (err=%v)", path, err)
	}
}

func TestRun_Success(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	ex := &fakeExtractor{files: []string{"a.py", "b.js"}}
	an := &fakeAnalyzer{}
	rem := &fakeRemediator{}

	var stages []string
	o := New(ex, an, rem, root).WithHooks(Hooks{Stage: func(s string) { stages = append(stages, s) }})
	res, err := o.Run(context.Background(), "https://github.com/acme/app")
	if err != nil {
		t.Fatal(err)
	}

	if res.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", res.Extracted)
	}
	if res.ReportPath == "" || res.SummaryPath == "" {
		t.Errorf("result = %+v", res)
	}
	if rem.report != res.ReportPath {
		t.Errorf("remediation ran on %q, want %q", rem.report, res.ReportPath)
	}
	if !reflect.DeepEqual(an.seen, []string{"a.py", "b.js"}) {
		t.Errorf("analyzer saw %v", an.seen)
	}
	want := []string{StageExtracting, StageAnalyzing, StageRemediating}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
	assertAbsent(t, root)
}

func TestRun_ClearsStaleRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stale.py"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	an := &fakeAnalyzer{}
	if _, err := New(&fakeExtractor{files: []string{"new.py"}}, an, nil, root).Run(context.Background(), "u"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(an.seen, []string{"new.py"}) {
		t.Errorf("stale file leaked into the run: %v", an.seen)
	}
	assertAbsent(t, root)
}

func TestRun_AnalysisFailureStillCleans(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	boom := errors.New("analysis exploded")
	rem := &fakeRemediator{}

	_, err := New(&fakeExtractor{files: []string{"a.py"}}, &fakeAnalyzer{err: boom}, rem, root).Run(context.Background(), "u")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want analysis error", err)
	}
	if rem.report != "" {
		t.Error("remediation should not run after a failed analysis")
	}
	assertAbsent(t, root)
}

func TestRun_ValidationFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	an := &fakeAnalyzer{}

	_, err := New(&fakeExtractor{err: extract.ErrNotPublicRepo}, an, nil, root).Run(context.Background(), "nope")
	if !errors.Is(err, extract.ErrNotPublicRepo) {
		t.Fatalf("err = %v, want ErrNotPublicRepo", err)
	}
	if an.seen != nil {
		t.Error("analyzer ran after failed extraction")
	}
	assertAbsent(t, root)
}

func TestRun_RemediationFailureKeepsReport(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	boom := errors.New("provider down")

	res, err := New(&fakeExtractor{}, &fakeAnalyzer{}, &fakeRemediator{err: boom}, root).Run(context.Background(), "u")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if res.ReportPath == "" {
		t.Error("report path should survive a remediation failure")
	}
	assertAbsent(t, root)
}

func TestRun_RootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")
	if err := os.WriteFile(root, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}
	ex := &fakeExtractor{files: []string{"a.py"}}
	if _, err := New(ex, &fakeAnalyzer{}, nil, root).Run(context.Background(), "u"); err == nil {
		t.Fatal("expected pre-run cleanup error")
	}
}
