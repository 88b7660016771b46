package localfs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), 10)
	writeFile(t, filepath.Join(root, "a", "mid.txt"), 20)
	writeFile(t, filepath.Join(root, "a", "b", "deep.txt"), 30)
	writeFile(t, filepath.Join(root, ".hidden", "secret.txt"), 5)
	writeFile(t, filepath.Join(root, ".dotfile"), 5)

	tree, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(tree.Files) != 3 {
		t.Errorf("files = %d, want 3 (hidden excluded)", len(tree.Files))
	}
	if tree.TotalBytes != 60 {
		t.Errorf("total = %d, want 60", tree.TotalBytes)
	}
	if len(tree.Dirs) != 2 {
		t.Errorf("dirs = %d, want 2", len(tree.Dirs))
	}
	if tree.MaxDepth != 1 {
		t.Errorf("maxDepth = %d, want 1", tree.MaxDepth)
	}

	// Dirs come back shallow-first.
	if tree.Dirs[0].RelPath != "/a" || tree.Dirs[1].RelPath != "/a/b" {
		t.Errorf("dir order = %q, %q", tree.Dirs[0].RelPath, tree.Dirs[1].RelPath)
	}
	if tree.Dirs[1].Depth != 1 {
		t.Errorf("depth(/a/b) = %d, want 1", tree.Dirs[1].Depth)
	}
}

func TestCollectIncludeHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "secret.txt"), 5)

	tree, err := Collect(root, Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(tree.Files) != 1 || tree.Files[0].RelPath != "/.hidden/secret.txt" {
		t.Errorf("files = %+v, want the hidden file", tree.Files)
	}
}

func TestCollectSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.txt"), 1)
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tree, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(tree.Files) != 1 || len(tree.Dirs) != 0 {
		t.Errorf("tree = %+v, want single real file", tree)
	}
}

func TestDirsAtDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "1.txt"), 1)
	writeFile(t, filepath.Join(root, "y", "2.txt"), 1)
	writeFile(t, filepath.Join(root, "x", "z", "3.txt"), 1)

	tree, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := len(tree.DirsAtDepth(0)); got != 2 {
		t.Errorf("depth 0 dirs = %d, want 2", got)
	}
	if got := len(tree.DirsAtDepth(1)); got != 1 {
		t.Errorf("depth 1 dirs = %d, want 1", got)
	}
}

func TestIsHidden(t *testing.T) {
	if !IsHidden("/tmp/.git") {
		t.Error(".git should be hidden")
	}
	if IsHidden("/tmp/plain") {
		t.Error("plain should not be hidden")
	}
	if IsHidden(".") || IsHidden("..") {
		t.Error("dot entries are not hidden files")
	}
}
