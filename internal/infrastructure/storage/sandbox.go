// Package storage keeps uploaded documents under a private storage root.
//
// Every path that enters from outside the process (a handle in a preview or
// print request) is resolved through Resolve before it is touched.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/domain/shared"
)

// Resolve canonicalizes candidate and root (absolute form, symlinks evaluated,
// "." and ".." removed) and returns the canonical candidate only if it is root
// itself or lies beneath it. Relative candidates are interpreted relative to root.
// Any other outcome is a PATH_ESCAPE error.
func Resolve(candidate, root string) (string, error) {
	if candidate == "" {
		return "", pathEscape("empty path", candidate)
	}
	if strings.ContainsRune(candidate, 0) {
		return "", pathEscape("path contains a null byte", candidate)
	}
	if root == "" || strings.ContainsRune(root, 0) {
		return "", pathEscape("invalid storage root", root)
	}

	canonRoot, err := canonicalize(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage root: %w", err)
	}

	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(canonRoot, candidate)
	}
	canonPath, err := canonicalize(candidate)
	if err != nil {
		return "", shared.WrapDomainError(printing.CodePathEscape, "failed to resolve path", err)
	}

	if !isWithin(canonPath, canonRoot) {
		return "", pathEscape("path is outside the storage root", candidate)
	}
	return canonPath, nil
}

// canonicalize returns the absolute, symlink-free form of p. When the leaf (or
// several trailing components) do not exist yet, the nearest existing ancestor
// is evaluated and the missing components are appended unchanged. A component
// that exists as a symlink whose target cannot be resolved is an error.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	var missing []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if info, lerr := os.Lstat(current); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("dangling symlink %s", current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}
}

func isWithin(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

func pathEscape(reason, path string) error {
	return shared.NewDomainError(printing.CodePathEscape, fmt.Sprintf("%s: %q", reason, path))
}
