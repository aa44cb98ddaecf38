package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.md")
	if err := SafeWriteFile(path, []byte("[DATASET SUMMARY]\n")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "[DATASET SUMMARY]\n" {
		t.Fatalf("unexpected content %q", b)
	}
	if Exists(path + ".tmp") {
		t.Fatalf("temp file left behind")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/out/plots")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "out", "plots"); got != want {
		t.Fatalf("ExpandHome = %q, want %q", got, want)
	}
	got, _ = ExpandHome("out/./plots")
	if got != filepath.Join("out", "plots") {
		t.Fatalf("relative path not cleaned: %q", got)
	}
}
