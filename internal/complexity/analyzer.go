// Package complexity derives per-file structural and documentation
// metrics: line counts, cyclomatic complexity, API surface, doc
// coverage and the richness score routing ranks files by.
package complexity

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/source"
	"github.com/distill-dev/distill/internal/syntax"
)

// Metrics are the per-file figures routing consumes.
type Metrics struct {
	Path        string
	LOC         int
	Cyclomatic  int
	APICount    int
	DocCoverage float64 // percent, one decimal
	Richness    float64 // one decimal
	ParseError  bool
}

// Weights are the tunable richness coefficients. Richness is
// APICount*APIWeight + LOC/LOCDivisor, capped at Cap when Cap is
// positive; the combination stays monotonic in both inputs.
type Weights struct {
	APIWeight  float64
	LOCDivisor float64
	Cap        float64
}

// Analyzer computes metrics for every file in a set.
type Analyzer struct {
	set     *source.Set
	weights Weights
	log     *zap.Logger
}

// NewAnalyzer creates an analyzer over a scanned file set.
func NewAnalyzer(set *source.Set, weights Weights, log *zap.Logger) *Analyzer {
	return &Analyzer{set: set, weights: weights, log: log.Named("complexity")}
}

// Analyze computes metrics for each file in the set. An unparsable
// file keeps its raw line count, zeroes the syntax-derived figures and
// is flagged; the rest of the repository is still analyzed. On context
// cancellation the remaining files are left unprocessed; the caller
// finalizes them.
func (a *Analyzer) Analyze(ctx context.Context) map[string]*Metrics {
	out := make(map[string]*Metrics, a.set.Len())
	for _, f := range a.set.Files() {
		if ctx.Err() != nil {
			break
		}
		m := &Metrics{Path: f.Path}
		out[f.Path] = m

		var prefixes []string
		if adapter, ok := a.set.Adapter(f); ok {
			prefixes = adapter.CommentPrefixes()
		}
		m.LOC = countLOC(f.Content, prefixes)

		parsed, err := a.set.Parse(ctx, f)
		if err != nil {
			// Keep the raw line count; the syntax-derived figures stay
			// zero so the file cannot skew the repository maxima.
			m.ParseError = true
			a.log.Warn("parse failed", zap.String("path", f.Path), zap.Error(err))
			continue
		}

		m.Cyclomatic = 1 + parsed.Decisions
		documented := 0
		parsed.WalkDefinitions(func(d *syntax.Definition, depth int) {
			m.APICount++
			if strings.TrimSpace(d.Doc) != "" {
				documented++
			}
		})
		if m.APICount == 0 {
			// No API surface to document; vacuously covered.
			m.DocCoverage = 100.0
		} else {
			m.DocCoverage = round1(float64(documented) / float64(m.APICount) * 100.0)
		}
		m.Richness = a.richness(m)
	}
	return out
}

func (a *Analyzer) richness(m *Metrics) float64 {
	score := float64(m.APICount)*a.weights.APIWeight + float64(m.LOC)/a.weights.LOCDivisor
	if a.weights.Cap > 0 && score > a.weights.Cap {
		score = a.weights.Cap
	}
	return round1(score)
}

// countLOC counts lines carrying non-whitespace content, excluding
// full-line comments. Trailing comments on code lines still count.
func countLOC(content []byte, commentPrefixes []string) int {
	count := 0
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		comment := false
		for _, p := range commentPrefixes {
			if strings.HasPrefix(trimmed, p) {
				comment = true
				break
			}
		}
		if !comment {
			count++
		}
	}
	return count
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
