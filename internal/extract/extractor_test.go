package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/vulnforge/internal/manifest"
)

type fakeVCS struct {
	files    map[string]string
	listErr  error
	cloneErr error
	block    bool

	listed []string
	cloned []string
}

func (f *fakeVCS) ListRemote(ctx context.Context, url string) error {
	f.listed = append(f.listed, url)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.listErr
}

func (f *fakeVCS) Clone(_ context.Context, url, dest string) error {
	f.cloned = append(f.cloned, url)
	if f.cloneErr != nil {
		return f.cloneErr
	}
	for rel, content := range f.files {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestExtract_FiltersByExtension(t *testing.T) {
	vcs := &fakeVCS{files: map[string]string{
		"a.py":      "print('a')",
		"b.js":      "console.log('b')",
		"readme.md": "# readme",
	}}
	root := filepath.Join(t.TempDir(), "code_files")

	res, err := New(vcs, nil).Extract(context.Background(), "https://github.com/acme/app", root)
	if err != nil {
		t.Fatal(err)
	}

	if res.Count != 2 {
		t.Fatalf("Count = %d, want 2", res.Count)
	}
	entries, err := manifest.Read(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("manifest length = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.RepoPath == "readme.md" {
			t.Error("readme.md must not appear in the manifest")
		}
		if e.RepoName != "app" || e.OriginURL != "https://github.com/acme/app" {
			t.Errorf("entry metadata: %+v", e)
		}
		if !filepath.IsAbs(filepath.FromSlash(e.ExtractedPath)) {
			t.Errorf("extracted path %q not absolute", e.ExtractedPath)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "readme.md")); !os.IsNotExist(err) {
		t.Error("readme.md must not be copied")
	}
	assertRootMatchesManifest(t, root)
}

func TestExtract_SkipsGitMetadataAndKeepsLayout(t *testing.T) {
	vcs := &fakeVCS{files: map[string]string{
		".git/hooks/pre-commit.sh": "#!/bin/sh",
		"src/pkg/Main.PY":          "x = 1",
		"src/pkg/.git/inner.go":    "package inner",
		"web/index.html":           "<html></html>",
	}}
	root := filepath.Join(t.TempDir(), "out")

	res, err := New(vcs, nil).Extract(context.Background(), "git@github.com:acme/app.git", root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 2 {
		t.Fatalf("Count = %d, want 2", res.Count)
	}
	if vcs.cloned[0] != "https://github.com/acme/app" {
		t.Errorf("cloned %q, want normalized web URL", vcs.cloned[0])
	}

	data, err := os.ReadFile(filepath.Join(root, "src", "pkg", "Main.PY"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "x = 1" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, ".git")); !os.IsNotExist(err) {
		t.Error(".git must not be extracted")
	}
	assertRootMatchesManifest(t, root)
}

func TestExtract_ReextractReplacesPreviousContent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "code_files")

	first := &fakeVCS{files: map[string]string{"a.py": "a", "b.js": "b"}}
	if _, err := New(first, nil).Extract(context.Background(), "https://github.com/acme/one", root); err != nil {
		t.Fatal(err)
	}

	second := &fakeVCS{files: map[string]string{"c.go": "package c"}}
	res, err := New(second, nil).Extract(context.Background(), "https://github.com/acme/two", root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 {
		t.Fatalf("Count = %d, want 1", res.Count)
	}

	entries, err := manifest.Read(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].RepoPath != "c.go" || entries[0].RepoName != "two" {
		t.Fatalf("manifest = %+v, want only c.go from repo two", entries)
	}
	if _, err := os.Stat(filepath.Join(root, "a.py")); !os.IsNotExist(err) {
		t.Error("a.py from previous extraction survived")
	}
	assertRootMatchesManifest(t, root)
}

func TestExtract_EmptyRepo(t *testing.T) {
	vcs := &fakeVCS{files: map[string]string{"LICENSE": "MIT"}}
	root := filepath.Join(t.TempDir(), "code_files")

	res, err := New(vcs, nil).Extract(context.Background(), "https://github.com/acme/docs", root)
	if err != nil {
		t.Fatalf("empty extraction is not an error: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("Count = %d, want 0", res.Count)
	}
	entries, err := manifest.Read(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("manifest length = %d, want 0", len(entries))
	}
}

func TestExtract_RejectsInvalidReferences(t *testing.T) {
	refs := []string{
		"https://gitlab.com/acme/app",
		"https://github.com/acme",
		"ftp://github.com/acme/app",
		"acme/app",
		"",
	}
	for _, ref := range refs {
		vcs := &fakeVCS{}
		_, err := New(vcs, nil).Extract(context.Background(), ref, t.TempDir())
		if !errors.Is(err, ErrNotPublicRepo) {
			t.Errorf("%q: err = %v, want ErrNotPublicRepo", ref, err)
		}
		if len(vcs.listed) != 0 || len(vcs.cloned) != 0 {
			t.Errorf("%q: malformed reference reached the VCS", ref)
		}
	}
}

func TestExtract_UnreachableRemote(t *testing.T) {
	vcs := &fakeVCS{listErr: errors.New("exit status 128")}
	_, err := New(vcs, nil).Extract(context.Background(), "https://github.com/acme/private", t.TempDir())
	if !errors.Is(err, ErrNotPublicRepo) {
		t.Fatalf("err = %v, want ErrNotPublicRepo", err)
	}
	if len(vcs.cloned) != 0 {
		t.Error("clone must not run after a failed probe")
	}
}

func TestExtract_ProbeTimeout(t *testing.T) {
	vcs := &fakeVCS{block: true}
	ex := New(vcs, nil).WithProbeTimeout(20 * time.Millisecond)

	_, err := ex.Extract(context.Background(), "https://github.com/acme/slow", t.TempDir())
	if !errors.Is(err, ErrNotPublicRepo) {
		t.Fatalf("err = %v, want ErrNotPublicRepo", err)
	}
}

func TestExtract_CloneFailure(t *testing.T) {
	vcs := &fakeVCS{cloneErr: &CloneError{Output: "fatal: early EOF", Err: errors.New("exit status 128")}}
	root := filepath.Join(t.TempDir(), "code_files")

	_, err := New(vcs, nil).Extract(context.Background(), "https://github.com/acme/app", root)
	var cerr *CloneError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CloneError", err)
	}
	if !strings.Contains(err.Error(), "fatal: early EOF") {
		t.Errorf("error %q lacks git diagnostic", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("extraction root created despite clone failure")
	}
}

func TestExtract_AllowedHosts(t *testing.T) {
	vcs := &fakeVCS{files: map[string]string{"main.go": "package main"}}
	ex := New(vcs, []string{"git.example.com"})

	if _, err := ex.Extract(context.Background(), "https://github.com/acme/app", t.TempDir()); !errors.Is(err, ErrNotPublicRepo) {
		t.Fatalf("github.com should be rejected when not allowed: %v", err)
	}
	res, err := ex.Extract(context.Background(), "https://git.example.com/acme/app", filepath.Join(t.TempDir(), "r"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}
}

// assertRootMatchesManifest checks that every allow-listed file in root has
// exactly one manifest entry and vice versa.
func assertRootMatchesManifest(t *testing.T, root string) {
	t.Helper()
	entries, err := manifest.Read(root)
	if err != nil {
		t.Fatal(err)
	}
	want := make(map[string]int)
	for _, e := range entries {
		want[e.ExtractedPath]++
	}

	var found int
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Base(path) == manifest.FileName {
			return nil
		}
		if !IsCodeFile(path) {
			t.Errorf("non-code file extracted: %s", path)
			return nil
		}
		found++
		if want[filepath.ToSlash(path)] != 1 {
			t.Errorf("%s has %d manifest entries, want 1", path, want[filepath.ToSlash(path)])
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if found != len(entries) {
		t.Errorf("files on disk = %d, manifest entries = %d", found, len(entries))
	}
}
