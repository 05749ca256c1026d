package extract

import (
	"path/filepath"
	"sort"
	"strings"
)

// codeExtensions is the allow-list of suffixes treated as source code.
var codeExtensions = map[string]struct{}{
	".c": {}, ".cc": {}, ".cpp": {}, ".cs": {}, ".css": {}, ".go": {},
	".h": {}, ".hpp": {}, ".html": {}, ".java": {}, ".js": {}, ".jsx": {},
	".kt": {}, ".kts": {}, ".m": {}, ".mm": {}, ".php": {}, ".pl": {},
	".py": {}, ".rb": {}, ".rs": {}, ".scala": {}, ".sh": {}, ".sql": {},
	".swift": {}, ".ts": {}, ".tsx": {}, ".vue": {},
}

// IsCodeFile reports whether name carries an allow-listed extension.
// The comparison is case-insensitive.
func IsCodeFile(name string) bool {
	_, ok := codeExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// CodeExtensions returns the allow-list, sorted.
func CodeExtensions() []string {
	out := make([]string, 0, len(codeExtensions))
	for ext := range codeExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
