package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoolgate/backend/internal/domain/printing"
)

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolve(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o750))

	tests := []struct {
		name      string
		candidate string
		expected  string
		escape    bool
	}{
		{"relative file", "a.pdf", filepath.Join(root, "a.pdf"), false},
		{"absolute file", filepath.Join(root, "a.pdf"), filepath.Join(root, "a.pdf"), false},
		{"missing file", "missing.pdf", filepath.Join(root, "missing.pdf"), false},
		{"missing nested", "sub/x/y.pdf", filepath.Join(root, "sub", "x", "y.pdf"), false},
		{"root itself", ".", root, false},
		{"dot segments inside", "sub/../a.pdf", filepath.Join(root, "a.pdf"), false},
		{"parent traversal", "../etc/passwd", "", true},
		{"deep traversal", "../../../../../../etc/passwd", "", true},
		{"absolute outside", "/etc/passwd", "", true},
		{"sibling prefix", root + "-evil/a.pdf", "", true},
		{"empty", "", "", true},
		{"null byte", "a.pdf\x00.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.candidate, root)
			if tt.escape {
				require.Error(t, err)
				assert.ErrorIs(t, err, printing.ErrPathEscape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolve_Symlinks(t *testing.T) {
	root := canonicalTempDir(t)
	outside := canonicalTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inside.pdf"), []byte("x"), 0o600))

	t.Run("link escaping the root is rejected", func(t *testing.T) {
		link := filepath.Join(root, "escape")
		require.NoError(t, os.Symlink(outside, link))

		_, err := Resolve("escape/secret.txt", root)
		assert.ErrorIs(t, err, printing.ErrPathEscape)
	})

	t.Run("link staying inside the root is allowed", func(t *testing.T) {
		link := filepath.Join(root, "alias.pdf")
		require.NoError(t, os.Symlink(filepath.Join(root, "inside.pdf"), link))

		got, err := Resolve("alias.pdf", root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "inside.pdf"), got)
	})

	t.Run("root given through a symlink", func(t *testing.T) {
		aliasRoot := filepath.Join(outside, "root-alias")
		require.NoError(t, os.Symlink(root, aliasRoot))

		got, err := Resolve("inside.pdf", aliasRoot)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "inside.pdf"), got)
	})

	t.Run("dangling link pointing outside is rejected", func(t *testing.T) {
		require.NoError(t, os.Symlink(filepath.Join(outside, "missing.txt"), filepath.Join(root, "dangling.pdf")))

		_, err := Resolve("dangling.pdf", root)
		assert.ErrorIs(t, err, printing.ErrPathEscape)
	})

	t.Run("dangling link pointing inside is rejected", func(t *testing.T) {
		require.NoError(t, os.Symlink(filepath.Join(root, "gone.pdf"), filepath.Join(root, "stale.pdf")))

		_, err := Resolve("stale.pdf", root)
		assert.ErrorIs(t, err, printing.ErrPathEscape)
	})

	t.Run("missing leaf under the root is still resolved", func(t *testing.T) {
		got, err := Resolve("not-yet.pdf", root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "not-yet.pdf"), got)
	})
}

func TestResolve_AlwaysInsideRoot(t *testing.T) {
	root := canonicalTempDir(t)
	candidates := []string{
		"a", "./a", "a/../b", "..", "../", "a/../../b", "/", "//", "./../" + filepath.Base(root) + "/x",
		"....//", "..%2f..%2fetc", "a\\..\\..\\b",
	}

	for _, c := range candidates {
		got, err := Resolve(c, root)
		if err != nil {
			assert.ErrorIs(t, err, printing.ErrPathEscape, c)
			continue
		}
		assert.True(t, isWithin(got, root), "resolved %q to %q outside %q", c, got, root)
	}
}
