// Package localfs walks local directory trees for upload: hidden-file
// filtering, symlink skipping, and the depth-grouped view the tree uploader
// needs to create remote folders level by level.
package localfs

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/datavault/dvcli/internal/pathutil"
)

// Entry is one file or directory found under the upload root. RelPath is
// the remote-form relative path ("/sub/file.txt"); Depth counts directory
// levels below the root, 0 for direct children.
type Entry struct {
	Path    string
	RelPath string
	Name    string
	Size    int64
	IsDir   bool
	Depth   int
	ModTime time.Time
}

// Options controls tree collection.
type Options struct {
	// IncludeHidden walks dot-files and dot-directories too.
	IncludeHidden bool
}

// Tree is the collected upload set. Dirs is sorted by ascending depth so a
// consumer can replay the hierarchy top-down.
type Tree struct {
	Dirs       []Entry
	Files      []Entry
	TotalBytes int64
	MaxDepth   int
}

// Collect walks root and returns every directory and regular file beneath
// it. Symlinks are skipped with a warning rather than followed; a link
// pointing back into the tree would otherwise loop forever.
func Collect(root string, opts Options) (Tree, error) {
	root = filepath.Clean(root)

	var tree Tree
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if !opts.IncludeHidden && isHiddenName(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			log.Warn().Str("path", path).Msg("skipping symlink")
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping unreadable entry")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := pathutil.NormalizeRel(path, root)
		entry := Entry{
			Path:    path,
			RelPath: rel,
			Name:    name,
			IsDir:   d.IsDir(),
			Depth:   depthOf(rel),
			ModTime: info.ModTime(),
		}

		if entry.IsDir {
			tree.Dirs = append(tree.Dirs, entry)
			if entry.Depth > tree.MaxDepth {
				tree.MaxDepth = entry.Depth
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			log.Warn().Str("path", path).Msg("skipping special file")
			return nil
		}

		entry.Size = info.Size()
		tree.Files = append(tree.Files, entry)
		tree.TotalBytes += entry.Size
		return nil
	})
	if err != nil {
		return Tree{}, err
	}

	sort.SliceStable(tree.Dirs, func(i, j int) bool {
		return tree.Dirs[i].Depth < tree.Dirs[j].Depth
	})
	return tree, nil
}

// DirsAtDepth returns the directories at one level, for batched creation.
func (t Tree) DirsAtDepth(depth int) []Entry {
	var out []Entry
	for _, d := range t.Dirs {
		if d.Depth == depth {
			out = append(out, d)
		}
	}
	return out
}

// depthOf counts levels below the root for a normalized relative path:
// "/a" is 0, "/a/b" is 1.
func depthOf(rel string) int {
	depth := 0
	for i := 1; i < len(rel); i++ {
		if rel[i] == '/' {
			depth++
		}
	}
	return depth
}

// IsHidden reports whether the path's base name is a dot-file.
func IsHidden(path string) bool {
	return isHiddenName(filepath.Base(path))
}

func isHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}
