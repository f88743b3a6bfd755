package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := SafeWriteFile(p, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandHome("~/.tabsift/work")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".tabsift", "work"); got != want {
		t.Fatalf("ExpandHome = %q, want %q", got, want)
	}
	got, err = ExpandHome("rel/../dir")
	if err != nil {
		t.Fatal(err)
	}
	if got != "dir" {
		t.Fatalf("ExpandHome(rel) = %q", got)
	}
}
