package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadDir_FiltersAndSorts(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "23 05 00 hvac.txt", "hvac body")
	writeFile(t, tmp, "22 05 00 plumbing.txt", "plumbing body")
	writeFile(t, tmp, "notes.md", "notes body")
	writeFile(t, tmp, "drawing.pdf", "binary-ish")
	writeFile(t, tmp, "~$22 05 00 plumbing.txt", "word lock file")
	writeFile(t, tmp, ".hidden.txt", "dotfile")
	if err := os.Mkdir(filepath.Join(tmp, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	want := []string{"22 05 00 plumbing.txt", "23 05 00 hvac.txt", "notes.md"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}
	for i, name := range want {
		if files[i].FileName != name {
			t.Fatalf("position %d: got %s, want %s", i, files[i].FileName, name)
		}
	}
	if files[0].RawText != "plumbing body" {
		t.Fatalf("content mismatch: %q", files[0].RawText)
	}
}

func TestReadDir_EmptyDirErrors(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "only.pdf", "not text")

	if _, err := ReadDir(tmp); err == nil {
		t.Fatal("expected error when no extracted files exist")
	}
}

func TestReadFiles_PreservesGivenOrder(t *testing.T) {
	tmp := t.TempDir()
	b := writeFile(t, tmp, "b.txt", "second")
	a := writeFile(t, tmp, "a.txt", "first")

	files, err := ReadFiles([]string{b, a})
	if err != nil {
		t.Fatalf("ReadFiles: %v", err)
	}
	if files[0].FileName != "b.txt" || files[1].FileName != "a.txt" {
		t.Fatalf("explicit order must be preserved: %+v", files)
	}
}

func TestReadFiles_MissingFile(t *testing.T) {
	if _, err := ReadFiles([]string{"/nonexistent/spec.txt"}); err == nil {
		t.Fatal("expected stat error")
	}
}

func TestReadFiles_TooLarge(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "huge.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.Truncate(DefaultMaxFileSize + 1); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	f.Close()

	if _, err := ReadFiles([]string{path}); err == nil {
		t.Fatal("expected size limit error")
	}
}
