package analyze

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docketpdf/docket/internal/document"
)

// Discover walks root recursively and returns supported documents in
// deterministic (lexical path) order plus the names of files that were
// skipped as unsupported. Hidden files and directories are ignored.
func Discover(root string) ([]document.Document, []string, error) {
	var (
		docs        []document.Document
		unsupported []string
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		format := document.FormatForPath(path)
		if format == document.FormatUnknown {
			unsupported = append(unsupported, name)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		docs = append(docs, document.Document{
			Path:   path,
			Format: format,
			Size:   info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	for i := range docs {
		docs[i].Index = i
	}
	sort.Strings(unsupported)
	return docs, unsupported, nil
}
