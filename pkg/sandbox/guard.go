package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxLinkHops bounds symlink chains followed while canonicalizing.
const maxLinkHops = 255

var (
	ErrAccessDenied = errors.New("Access denied")
	ErrNotFound     = errors.New("File not found")
)

// Guard decides whether a path lies inside the sandbox root.
type Guard struct {
	root string
}

func NewGuard(root string) (*Guard, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("sandbox root not configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	return &Guard{root: abs}, nil
}

// Root returns the configured (absolute, not canonicalized) root.
func (g *Guard) Root() string {
	return g.root
}

// Ensure creates the root directory if it does not exist yet.
func (g *Guard) Ensure() error {
	if err := os.MkdirAll(g.root, 0o755); err != nil {
		return fmt.Errorf("prepare sandbox root: %w", err)
	}
	return nil
}

// IsSafe reports whether path, once canonicalized, is the root or lies below it.
// Relative paths are taken relative to the root. Any resolution failure is
// reported as unsafe.
func (g *Guard) IsSafe(path string) bool {
	_, err := g.Resolve(path)
	return err == nil
}

// Resolve returns the canonical absolute form of path or ErrAccessDenied.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" || strings.ContainsRune(path, 0) {
		return "", ErrAccessDenied
	}
	root, err := canonicalize(g.root)
	if err != nil {
		return "", ErrAccessDenied
	}
	if !filepath.IsAbs(path) {
		path = g.root + string(filepath.Separator) + path
	}
	resolved, err := canonicalize(path)
	if err != nil {
		return "", ErrAccessDenied
	}
	if !within(root, resolved) {
		return "", ErrAccessDenied
	}
	return resolved, nil
}

// Rel returns the root-relative form of an already resolved path.
func (g *Guard) Rel(resolved string) string {
	root, err := canonicalize(g.root)
	if err != nil {
		return filepath.Base(resolved)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return filepath.Base(resolved)
	}
	return filepath.ToSlash(rel)
}

func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// canonicalize resolves ".." and symlinks physically. Components that do not
// exist yet are appended to the canonical form of their deepest existing
// ancestor; a dangling symlink is followed to where it would write.
func canonicalize(path string) (string, error) {
	return canonicalizeHops(path, 0)
}

func canonicalizeHops(path string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", errors.New("too many levels of symbolic links")
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}
	path = trimTrailingSeparators(path)

	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return filepath.Abs(resolved)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	dir, base := filepath.Split(path)
	if dir == "" || dir == path {
		return "", err
	}
	parent, perr := canonicalizeHops(dir, hops)
	if perr != nil {
		return "", perr
	}

	switch base {
	case "", ".":
		return parent, nil
	case "..":
		return filepath.Dir(parent), nil
	}

	candidate := filepath.Join(parent, base)
	info, lerr := os.Lstat(candidate)
	if lerr != nil {
		if errors.Is(lerr, fs.ErrNotExist) {
			return candidate, nil
		}
		return "", lerr
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		// Exists now but not a moment ago; resolve it again.
		return canonicalizeHops(candidate, hops+1)
	}
	target, rerr := os.Readlink(candidate)
	if rerr != nil {
		return "", rerr
	}
	if !filepath.IsAbs(target) {
		target = parent + string(filepath.Separator) + target
	}
	return canonicalizeHops(target, hops+1)
}

func trimTrailingSeparators(path string) string {
	vol := filepath.VolumeName(path)
	for len(path) > len(vol)+1 && os.IsPathSeparator(path[len(path)-1]) {
		path = path[:len(path)-1]
	}
	return path
}
