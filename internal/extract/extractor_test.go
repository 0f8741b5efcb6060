package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/languages"
	"github.com/distill-dev/distill/internal/routing"
	"github.com/distill-dev/distill/internal/source"
)

func extractorFor(t *testing.T, files map[string]string) *Extractor {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	set, err := source.Scan(context.Background(), root, nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.NoError(t, err)
	return New(set)
}

func TestRenderFull(t *testing.T) {
	content := "def f():\n    return 1\n"
	e := extractorFor(t, map[string]string{"mod.py": content})

	out, err := e.Render(context.Background(), "mod.py", routing.Full)
	require.NoError(t, err)
	assert.Equal(t, content, string(out))
}

func TestRenderSignature(t *testing.T) {
	e := extractorFor(t, map[string]string{
		"mod.py": "def f(a, b):\n    \"\"\"Adds.\"\"\"\n    total = a + b\n    return total\n",
	})

	out, err := e.Render(context.Background(), "mod.py", routing.Signature)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "def f(a, b):")
	assert.Contains(t, s, `"""Adds."""`)
	assert.Contains(t, s, "...")
	assert.NotContains(t, s, "total = a + b")
}

func TestRenderMinimal(t *testing.T) {
	e := extractorFor(t, map[string]string{
		"mod.py": `"""Module doc."""


def documented(a):
    """Does things.

    More detail.
    """
    return a


class C:
    def inner(self):
        """Inner doc."""
        return 1
`,
	})

	out, err := e.Render(context.Background(), "mod.py", routing.Minimal)
	require.NoError(t, err)

	want := "Module doc.\n" +
		"\n" +
		"def documented(a)\n" +
		"    Does things.\n" +
		"    \n" +
		"    More detail.\n" +
		"\n" +
		"def inner(self)\n" +
		"    Inner doc.\n"
	assert.Equal(t, want, string(out))
}

func TestRenderMinimalPlaceholder(t *testing.T) {
	e := extractorFor(t, map[string]string{"mod.py": "def f():\n    return 1\n"})

	out, err := e.Render(context.Background(), "mod.py", routing.Minimal)
	require.NoError(t, err)
	assert.Equal(t, NoDocPlaceholder+"\n", string(out))
}

func TestRenderSkipIsEmpty(t *testing.T) {
	e := extractorFor(t, map[string]string{"mod.py": "X = 1\n"})

	out, err := e.Render(context.Background(), "mod.py", routing.Skip)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRenderErrors(t *testing.T) {
	e := extractorFor(t, map[string]string{
		"mod.py": "X = 1\n",
		"bad.py": "def f(:\n",
	})

	_, err := e.Render(context.Background(), "missing.py", routing.Full)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown file")

	_, err = e.Render(context.Background(), "bad.py", routing.Signature)
	require.Error(t, err)

	_, err = e.Render(context.Background(), "bad.py", routing.Minimal)
	require.Error(t, err)

	_, err = e.Render(context.Background(), "mod.py", routing.Strategy(99))
	require.Error(t, err)
}
