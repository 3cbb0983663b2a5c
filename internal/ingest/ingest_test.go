package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o640); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestExpandLiteralAndDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.czi", "b.txt", "nested/c.czi")

	got, err := Expand([]string{filepath.Join(root, "a.czi"), root}, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	// Non-recursive directory expansion picks direct children only;
	// the literal duplicate of a.czi is folded away.
	if len(got) != 2 {
		t.Fatalf("Expand = %v", got)
	}
	if filepath.Base(got[0]) != "a.czi" || filepath.Base(got[1]) != "b.txt" {
		t.Fatalf("Expand = %v", got)
	}
}

func TestExpandRecursive(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.czi", "nested/deep/c.czi")

	got, err := Expand([]string{root}, Options{Recursive: true})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expand = %v", got)
	}
}

func TestExpandGlob(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.czi", "b.czi", "nested/c.czi", "d.txt")

	got, err := Expand([]string{filepath.Join(root, "**", "*.czi")}, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expand = %v", got)
	}
}

func TestExpandExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.czi", "b.txt")

	got, err := Expand([]string{root}, Options{Extensions: []string{".czi"}})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "a.czi" {
		t.Fatalf("Expand = %v", got)
	}
}

func TestExpandNoMatchIsError(t *testing.T) {
	root := t.TempDir()
	if _, err := Expand([]string{filepath.Join(root, "*.czi")}, Options{}); err == nil {
		t.Fatal("expected error for pattern matching nothing")
	}
}
