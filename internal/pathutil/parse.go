// Package pathutil translates between user-facing node paths
// (`host/room/folder/name`) and the (parentPath, name, depth) triple the
// search endpoints work with, and normalizes local filesystem paths.
package pathutil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/datavault/dvcli/internal/api"
)

// ParsedPath is the canonical decomposition of a node path. ParentPath
// always ends in '/'; Name is empty only for the root; Depth counts the
// parent components.
type ParsedPath struct {
	ParentPath string
	Name       string
	Depth      int
}

// Parse decomposes a node path. The https:// prefix, the host of baseURL,
// and a trailing slash are all tolerated on input.
//
//	Parse("https://h/folder/sub/file.txt", "https://h") -> {"/folder/sub/", "file.txt", 2}
//	Parse("https://h/", "https://h")                    -> {"/", "", 0}
func Parse(path, baseURL string) (ParsedPath, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(path), "https://")
	if trimmed == "" {
		return ParsedPath{}, fmt.Errorf("%w: empty path", api.ErrInvalidPath)
	}

	if host := hostOf(baseURL); host != "" {
		trimmed = strings.TrimPrefix(trimmed, host)
	}
	trimmed = strings.Trim(trimmed, "/")

	if trimmed == "" {
		return ParsedPath{ParentPath: "/", Name: "", Depth: 0}, nil
	}

	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" {
			return ParsedPath{}, fmt.Errorf("%w: empty component in %q", api.ErrInvalidPath, path)
		}
	}

	depth := len(parts) - 1
	parentPath := "/"
	if depth > 0 {
		parentPath = "/" + strings.Join(parts[:depth], "/") + "/"
	}

	return ParsedPath{
		ParentPath: parentPath,
		Name:       parts[depth],
		Depth:      depth,
	}, nil
}

// String rebuilds the canonical node path, e.g. "/folder/sub/file.txt".
// The root parses to "/".
func (p ParsedPath) String() string {
	if p.Name == "" {
		return "/"
	}
	return p.ParentPath + p.Name
}

// IsSearchQuery reports whether name is a glob: wildcard paths resolve the
// parent and use search-list semantics, never single-node lookup.
func IsSearchQuery(name string) bool {
	return strings.Contains(name, "*")
}

func hostOf(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	if !strings.Contains(baseURL, "://") {
		return strings.Trim(baseURL, "/")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// NormalizeRel maps a local absolute path to its remote form relative to
// root: forward slashes, no drive letter, leading '/'. NormalizeRel(root,
// root) is "/".
func NormalizeRel(path, root string) string {
	p := forceSlashes(path)
	r := forceSlashes(root)

	p = stripDrive(p)
	r = stripDrive(r)

	rel := strings.TrimPrefix(p, r)
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return "/"
	}
	return "/" + rel
}

// forceSlashes converts separators regardless of the host platform so
// remote paths come out identical from Windows and Unix clients.
func forceSlashes(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

// stripDrive removes a Windows drive prefix like "C:".
func stripDrive(p string) string {
	if len(p) >= 2 && p[1] == ':' {
		return p[2:]
	}
	return p
}
