package routing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/complexity"
	"github.com/distill-dev/distill/internal/graph"
	"github.com/distill-dev/distill/internal/ignore"
	"github.com/distill-dev/distill/internal/languages"
	"github.com/distill-dev/distill/internal/source"
)

var testThresholds = Thresholds{HighCentrality: 0.5, HighComplexity: 0.5, ComplexityWeight: 0.5}

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

func routeTree(t *testing.T, files map[string]string) (map[string]*Plan, []*Plan) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	matcher := ignore.NewMatcher(nil)
	set, err := source.Scan(context.Background(), root, matcher.ShouldIgnore, languages.NewDefaultRegistry(), zap.NewNop())
	require.NoError(t, err)
	g := graph.NewBuilder(set, 1.0, zap.NewNop()).Build(context.Background())
	metrics := complexity.NewAnalyzer(set, complexity.Weights{APIWeight: 5, LOCDivisor: 50, Cap: 100}, zap.NewNop()).Analyze(context.Background())
	plans := NewEngine(testThresholds, zap.NewNop()).Route(g, metrics)

	byPath := make(map[string]*Plan, len(plans))
	for _, p := range plans {
		byPath[p.Path] = p
	}
	return byPath, plans
}

func TestRouteQuadrants(t *testing.T) {
	plans, all := routeTree(t, map[string]string{
		"core.py":   "def ping():\n    return \"pong\"\n",
		"hairy.py":  branchy,
		"tangle.py": branchy,
		"leaf.py":   "def leaf():\n    return 1\n",
		"a.py":      "import core\nimport hairy\n",
		"b.py":      "import core\nimport hairy\n",
	})

	require.Len(t, all, 6, "exactly one plan per file")

	assert.Equal(t, Full, plans["core.py"].Strategy, "central and simple")
	assert.Equal(t, Signature, plans["hairy.py"].Strategy, "central and complex")
	assert.Equal(t, Signature, plans["tangle.py"].Strategy, "peripheral and complex")
	assert.Equal(t, Minimal, plans["leaf.py"].Strategy, "peripheral and simple")

	assert.Contains(t, plans["core.py"].Reason, "high centrality")
	assert.Contains(t, plans["core.py"].Reason, "low complexity")
	assert.Contains(t, plans["hairy.py"].Reason, "high complexity")
	assert.Contains(t, plans["leaf.py"].Reason, "low centrality")

	for _, p := range all {
		assert.Equal(t, p.Strategy, p.Routed, "%s: routed mirrors the initial decision", p.Path)
	}
}

func TestRoutePlansSortedByPath(t *testing.T) {
	_, all := routeTree(t, map[string]string{
		"z.py": "Z = 1\n",
		"a.py": "A = 1\n",
		"m.py": "M = 1\n",
	})
	var paths []string
	for _, p := range all {
		paths = append(paths, p.Path)
	}
	assert.Equal(t, []string{"a.py", "m.py", "z.py"}, paths)
}

func TestRouteEntryPointFloor(t *testing.T) {
	files := map[string]string{
		"hub.py":     "def h():\n    \"\"\"Doc.\"\"\"\n    return 1\n",
		"branchy.py": branchy,
		"entry.py":   "if __name__ == \"__main__\":\n    print(\"hi\")\n",
	}
	for i, name := range []string{"i1.py", "i2.py", "i3.py", "i4.py"} {
		files[name] = "import hub\nX = " + string(rune('0'+i)) + "\n"
	}
	plans, _ := routeTree(t, files)

	entry := plans["entry.py"]
	assert.Equal(t, Signature, entry.Strategy, "entry points never fall below signature")
	assert.Contains(t, entry.Reason, "entry point")
}

func TestRouteSkipsUnusableFiles(t *testing.T) {
	plans, _ := routeTree(t, map[string]string{
		"bad.py":   "def f(:\n",
		"empty.py": "   \n\n",
		"good.py":  "G = 1\n",
	})

	assert.Equal(t, Skip, plans["bad.py"].Strategy)
	assert.Equal(t, "parse error", plans["bad.py"].Reason)

	assert.Equal(t, Skip, plans["empty.py"].Strategy)
	assert.Equal(t, "empty file", plans["empty.py"].Reason)

	assert.NotEqual(t, Skip, plans["good.py"].Strategy)
}

func TestRouteWithMissingMetricsSkips(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("A = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("B = 1\n"), 0o644))
	set, err := source.Scan(context.Background(), root, nil, languages.NewDefaultRegistry(), zap.NewNop())
	require.NoError(t, err)
	g := graph.NewBuilder(set, 1.0, zap.NewNop()).Build(context.Background())
	metrics := complexity.NewAnalyzer(set, complexity.Weights{APIWeight: 5, LOCDivisor: 50, Cap: 100}, zap.NewNop()).Analyze(context.Background())
	delete(metrics, "b.py")

	plans := NewEngine(testThresholds, zap.NewNop()).Route(g, metrics)
	require.Len(t, plans, 2, "a cancelled analysis still yields a plan per file")

	byPath := map[string]*Plan{}
	for _, p := range plans {
		byPath[p.Path] = p
	}
	assert.Equal(t, Skip, byPath["b.py"].Strategy)
	assert.Equal(t, "cancelled before analysis", byPath["b.py"].Reason)
	assert.NotEqual(t, Skip, byPath["a.py"].Strategy)
}
