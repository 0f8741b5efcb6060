package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/ignore"
	"github.com/distill-dev/distill/internal/languages"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func scanTree(t *testing.T, files map[string]string) *Set {
	t.Helper()
	root := writeTree(t, files)
	matcher := ignore.NewMatcher(nil)
	set, err := Scan(context.Background(), root, matcher.ShouldIgnore, languages.NewDefaultRegistry(), zap.NewNop())
	require.NoError(t, err)
	return set
}

func TestScanCollectsClaimedFiles(t *testing.T) {
	set := scanTree(t, map[string]string{
		"main.py":            "import util\n",
		"util/__init__.py":   "def helper():\n    pass\n",
		"util/helpers.py":    "X = 1\n",
		"empty.py":           "  \n\n",
		"README.md":          "# readme\n",
		"tests/test_main.py": "def test_x():\n    pass\n",
		".hidden.py":         "SECRET = 1\n",
	})

	var paths []string
	for _, f := range set.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"empty.py", "main.py", "util/__init__.py", "util/helpers.py"}, paths)
	assert.Equal(t, 4, set.Len())

	assert.True(t, set.Has("util/helpers.py"))
	assert.False(t, set.Has("README.md"))
	assert.False(t, set.Has("tests/test_main.py"))

	f, ok := set.Get("main.py")
	require.True(t, ok)
	assert.Equal(t, "python", f.Language)
	assert.Equal(t, "import util\n", string(f.Content))
	assert.False(t, f.Empty())

	empty, ok := set.Get("empty.py")
	require.True(t, ok)
	assert.True(t, empty.Empty())
}

func TestScanWithoutIgnorePredicate(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":            "X = 1\n",
		"tests/test_main.py": "Y = 2\n",
	})
	set, err := Scan(context.Background(), root, nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.Error(t, err)
}

func TestScanRootNotDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.py")
	require.NoError(t, os.WriteFile(file, []byte("X = 1\n"), 0o644))

	_, err := Scan(context.Background(), file, nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScanCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"main.py": "X = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, root, nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseCachesByContent(t *testing.T) {
	set := scanTree(t, map[string]string{"main.py": "def f():\n    pass\n"})
	f, ok := set.Get("main.py")
	require.True(t, ok)

	first, err := set.Parse(context.Background(), f)
	require.NoError(t, err)
	second, err := set.Parse(context.Background(), f)
	require.NoError(t, err)
	assert.Same(t, first, second)

	f.Content = append(f.Content, []byte("def g():\n    pass\n")...)
	third, err := set.Parse(context.Background(), f)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, third.DefinitionCount())
}

func TestParseFailureIsSoft(t *testing.T) {
	set := scanTree(t, map[string]string{
		"bad.py":  "def f(:\n",
		"good.py": "X = 1\n",
	})

	bad, ok := set.Get("bad.py")
	require.True(t, ok)
	_, err := set.Parse(context.Background(), bad)
	require.Error(t, err)
	// Cached failures keep failing.
	_, err = set.Parse(context.Background(), bad)
	require.Error(t, err)

	good, ok := set.Get("good.py")
	require.True(t, ok)
	_, err = set.Parse(context.Background(), good)
	require.NoError(t, err)
}

func TestParseReadError(t *testing.T) {
	set := scanTree(t, map[string]string{"main.py": "X = 1\n"})
	f, ok := set.Get("main.py")
	require.True(t, ok)
	f.ReadError = "permission denied"

	_, err := set.Parse(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
