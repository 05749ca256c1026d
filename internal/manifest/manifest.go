package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the manifest's fixed name inside the extraction root.
const FileName = "extracted_manifest.json"

// Entry maps one extracted file back to its origin repository.
type Entry struct {
	OriginURL     string `json:"origin_url"`
	RepoName      string `json:"repo_name"`
	RepoPath      string `json:"repo_path"`      // posix-style, relative to the repo root
	ExtractedPath string `json:"extracted_path"` // absolute, posix-style
}

// Path returns the manifest location for an extraction root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Write stores entries as a single JSON array inside root.
func Write(root string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(Path(root), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read parses the manifest in root and reports any I/O or decode error.
func Read(root string) ([]Entry, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return entries, nil
}

// Load is Read without the errors: a missing or corrupt manifest yields no
// entries.
func Load(root string) []Entry {
	entries, err := Read(root)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ignoring unreadable manifest", "root", root, "error", err)
		}
		return nil
	}
	return entries
}
