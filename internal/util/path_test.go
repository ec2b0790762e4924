package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeJoinBlocksTraversal(t *testing.T) {
	root := t.TempDir()
	joined, err := SafeJoin(root, "../../etc/passwd")
	if err != nil {
		t.Fatalf("expected normalized path under root, got error: %v", err)
	}
	if filepath.Dir(joined) == "/etc" {
		t.Fatalf("path escaped root: %s", joined)
	}
}

func TestSafeJoinSymlinkEscape(t *testing.T) {
	if os.Getenv("CI") == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}
	if _, err := SafeJoin(root, "link/secret.txt"); !errors.Is(err, ErrEscapesRoot) {
		t.Fatalf("expected symlink escape to be rejected, got %v", err)
	}
}

func TestSafeJoinRejectsNUL(t *testing.T) {
	if _, err := SafeJoin(t.TempDir(), "a\x00b"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"/":           "",
		"./docs":      "docs",
		`docs\guide`:  "docs/guide",
		"../../etc/x": "etc/x",
		" a//b/./c/ ": "a/b/c",
		"a/../../b":   "b",
	}
	for in, want := range tests {
		if got := NormalizeRelPath(in); got != want {
			t.Fatalf("NormalizeRelPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRelPathFromRoot(t *testing.T) {
	root := t.TempDir()
	got, err := RelPathFromRoot(root, filepath.Join(root, "docs", "guide.md"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "docs/guide.md" {
		t.Fatalf("RelPathFromRoot() = %q", got)
	}
	if got, _ := RelPathFromRoot(root, root); got != "" {
		t.Fatalf("root itself should map to empty path, got %q", got)
	}
}
