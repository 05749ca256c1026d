package manifest

import (
	"path/filepath"
)

// Location is the repository-meaningful identity of an extracted file.
// RepoName and OriginURL are nil when the manifest had no entry for it.
type Location struct {
	RepoPath  string
	RepoName  *string
	OriginURL *string
}

// Mapper resolves extracted file paths back to repository identities.
type Mapper struct {
	root   string
	byPath map[string]Entry
}

// NewMapper loads the manifest under root. It never fails: without a usable
// manifest every lookup takes the fallback path.
func NewMapper(root string) *Mapper {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	m := &Mapper{root: abs, byPath: make(map[string]Entry)}
	for _, e := range Load(abs) {
		if e.ExtractedPath == "" || e.RepoPath == "" {
			continue
		}
		m.byPath[e.ExtractedPath] = e
	}
	return m
}

// Len returns the number of usable manifest entries.
func (m *Mapper) Len() int { return len(m.byPath) }

// Resolve maps an absolute path under the extraction root to its location.
func (m *Mapper) Resolve(path string) Location {
	key := filepath.ToSlash(path)
	if e, ok := m.byPath[key]; ok {
		loc := Location{RepoPath: e.RepoPath}
		if e.RepoName != "" {
			name := e.RepoName
			loc.RepoName = &name
		}
		if e.OriginURL != "" {
			u := e.OriginURL
			loc.OriginURL = &u
		}
		return loc
	}

	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return Location{RepoPath: key}
	}
	return Location{RepoPath: filepath.ToSlash(rel)}
}
