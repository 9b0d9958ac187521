// Package ingest is the document intake boundary. Native container
// parsing (.docx and friends) happens in an external extraction step;
// this package reads the already-extracted plain-text exports and hands
// the pipeline ordered (fileName, rawText) pairs.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize caps a single spec export at 10MB. Anything larger
// is almost certainly not an extracted trade section.
const DefaultMaxFileSize = 10 * 1024 * 1024

// SourceFile is one extracted document ready for preprocessing.
type SourceFile struct {
	FileName string
	RawText  string
}

// ReadDir reads every extracted spec export (.txt, .md) in dir, sorted
// by file name so runs are reproducible. Word-processor lock files
// (~$ prefix) and dotfiles are skipped.
func ReadDir(dir string) ([]SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no extracted spec files (.txt, .md) found in %s", dir)
	}

	return ReadFiles(paths)
}

// ReadFiles reads the given files in the given order.
func ReadFiles(paths []string) ([]SourceFile, error) {
	out := make([]SourceFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.Size() > DefaultMaxFileSize {
			return nil, fmt.Errorf("%s: file too large (%d bytes, max %d)", p, info.Size(), DefaultMaxFileSize)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		out = append(out, SourceFile{
			FileName: filepath.Base(p),
			RawText:  string(data),
		})
	}
	return out, nil
}
