package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/ignore"
	"github.com/distill-dev/distill/internal/routing"
	"github.com/distill-dev/distill/internal/tokens"
)

const branchy = `def a(x):
    if x:
        return 1
    if x > 1:
        return 2
    if x > 2:
        return 3
    if x > 3:
        return 4
    return 0


def b():
    return 1
`

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Model = tokens.HeuristicModel
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"core.py":  "def ping():\n    \"\"\"Answers.\"\"\"\n    return \"pong\"\n",
		"hairy.py": branchy,
		"a.py":     "import core\nimport hairy\n",
		"b.py":     "import core\nimport hairy\n",
		"main.py":  "import core\n\nif __name__ == \"__main__\":\n    pass\n",
	})

	res, err := New(testConfig(), zap.NewNop()).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, root, res.Root)
	assert.Equal(t, 5, res.Stats.Files)
	assert.Equal(t, 5, res.Stats.Edges)
	assert.False(t, res.Stats.Cancelled)
	assert.LessOrEqual(t, res.Stats.Consumed, res.Stats.Limit)

	var paths []string
	total := 0
	for _, p := range res.Plans {
		paths = append(paths, p.Path)
		if p.Strategy != routing.Skip {
			assert.Contains(t, res.Contents, p.Path)
			assert.Positive(t, p.Cost)
		} else {
			assert.NotContains(t, res.Contents, p.Path)
		}
	}
	assert.Equal(t, []string{"a.py", "b.py", "core.py", "hairy.py", "main.py"}, paths)
	for _, n := range res.Stats.Strategies {
		total += n
	}
	assert.Equal(t, res.Stats.Files, total, "strategy counts partition the files")

	assert.Equal(t, "python", res.Languages["core.py"])
	assert.Equal(t, 3.0, res.Graph.Nodes["core.py"].Centrality)

	// Central and simple files ship whole.
	byPath := map[string]*routing.Plan{}
	for _, p := range res.Plans {
		byPath[p.Path] = p
	}
	assert.Equal(t, routing.Full, byPath["core.py"].Strategy)
	assert.GreaterOrEqual(t, byPath["main.py"].Strategy, routing.Signature, "entry point floor")
}

func TestRunTightBudgetNeverOverspends(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"a.py": "def a():\n    return 1\n",
		"b.py": "def b():\n    return 2\n",
		"c.py": "def c():\n    return 3\n",
	})
	cfg := testConfig()
	cfg.TokenLimit = 10

	res, err := New(cfg, zap.NewNop()).Run(context.Background(), root)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Stats.Consumed, 10)
	assert.Positive(t, res.Stats.Downgrades)
	assert.Equal(t, 3, res.Stats.Files, "skipped files still carry a plan")
}

func TestRunEmptyRepository(t *testing.T) {
	root := writeRepo(t, map[string]string{"README.md": "# nothing to analyze\n"})

	_, err := New(testConfig(), zap.NewNop()).Run(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analyzable files")
}

func TestRunMissingRoot(t *testing.T) {
	_, err := New(testConfig(), zap.NewNop()).Run(context.Background(), filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
}

func TestRunCancelledBeforeScan(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "A = 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), zap.NewNop()).Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRespectsIgnoreFile(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"main.py":       "M = 1\n",
		"legacy/old.py": "O = 1\n",
		ignore.File:     "legacy/\n",
	})

	res, err := New(testConfig(), zap.NewNop()).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Files)
	assert.Equal(t, "main.py", res.Plans[0].Path)
}

func TestRunUnknownLanguage(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "A = 1\n"})
	cfg := testConfig()
	cfg.Languages = []string{"cobol"}

	_, err := New(cfg, zap.NewNop()).Run(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestRunLanguageSubset(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"a.py": "A = 1\n",
		"b.go": "package b\n\nvar B = 1\n",
		"c.py": "C = 1\n",
	})
	cfg := testConfig()
	cfg.Languages = []string{"go"}

	res, err := New(cfg, zap.NewNop()).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Files)
	assert.Equal(t, "b.go", res.Plans[0].Path)
	assert.Equal(t, "go", res.Languages["b.go"])
}
