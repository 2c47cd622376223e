package cowclone

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCloneSourceMissing(t *testing.T) {
	dir := t.TempDir()
	err := Clone(filepath.Join(dir, "absent"), filepath.Join(dir, "dest"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCloneSourceNotDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "file")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Clone(src, filepath.Join(dir, "dest")); err == nil {
		t.Fatal("expected error for non-directory source")
	}
}

func TestCloneDestinationExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	for _, d := range []string{src, dest} {
		if err := os.Mkdir(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := Clone(src, dest); err == nil {
		t.Fatal("expected error for existing destination")
	}
}

func TestCloneUnsupportedLeavesNoDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.Mkdir(src, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "dest")
	err := Clone(src, dest)

	if Supported(src) {
		// Filesystem can clone: the full tree must appear.
		if err != nil {
			t.Fatalf("Clone on supported filesystem: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
		if err != nil {
			t.Fatalf("reading cloned file: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("cloned content = %q, want hello", data)
		}
		return
	}

	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if _, statErr := os.Lstat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("destination should not exist after failed clone, stat err = %v", statErr)
	}
}

func TestSupportedCaches(t *testing.T) {
	dir := t.TempDir()
	first := Supported(dir)
	second := Supported(dir)
	if first != second {
		t.Errorf("Supported not stable for the same path: %v then %v", first, second)
	}
}
