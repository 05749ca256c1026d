package analyze

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ppiankov/vulnforge/internal/extract"
)

// CodeFiles lists the allow-listed regular files under root in lexical
// walk order.
func CodeFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && extract.IsCodeFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// readLenient returns the file as UTF-8 text. Invalid sequences become
// U+FFFD and a UTF-16 byte order mark switches the decoding.
func readLenient(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
	return string(decoded), nil
}
