package routing

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/complexity"
	"github.com/distill-dev/distill/internal/graph"
)

// Plan is the extraction decision for one file. Strategy is the
// committed value and may end up weaker than Routed after budgeting;
// Cost and Rank are filled in by the orchestrator.
type Plan struct {
	Path     string
	Strategy Strategy
	Routed   Strategy
	Reason   string
	Cost     int
	Rank     int
}

// Thresholds classify normalized scores into the quadrant table.
// ComplexityWeight balances cyclomatic complexity against richness in
// the composite complexity measure.
type Thresholds struct {
	HighCentrality   float64
	HighComplexity   float64
	ComplexityWeight float64
}

// Engine routes every file to an extraction strategy.
type Engine struct {
	thresholds Thresholds
	log        *zap.Logger
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(t Thresholds, log *zap.Logger) *Engine {
	return &Engine{thresholds: t, log: log.Named("routing")}
}

// Route produces exactly one plan per graph node, ordered by path.
// Scores are normalized against the repository's own maxima, so the
// quadrant split adapts to each repository's scale:
//
//	high centrality, low complexity  -> FULL
//	high centrality, high complexity -> SIGNATURE
//	low centrality, high complexity  -> SIGNATURE
//	low centrality, low complexity   -> MINIMAL
//
// Entry points are floored at SIGNATURE. Files with a parse error or
// no content route SKIP unconditionally.
func (e *Engine) Route(g *graph.Graph, metrics map[string]*complexity.Metrics) []*Plan {
	maxCent := g.MaxCentrality()
	maxCC, maxRich := 0.0, 0.0
	for _, m := range metrics {
		if float64(m.Cyclomatic) > maxCC {
			maxCC = float64(m.Cyclomatic)
		}
		if m.Richness > maxRich {
			maxRich = m.Richness
		}
	}

	plans := make([]*Plan, 0, len(g.Nodes))
	for _, p := range g.Paths() {
		plans = append(plans, e.route(g.Nodes[p], metrics[p], maxCent, maxCC, maxRich))
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Path < plans[j].Path })
	return plans
}

func (e *Engine) route(node *graph.Node, m *complexity.Metrics, maxCent, maxCC, maxRich float64) *Plan {
	plan := &Plan{Path: node.Path}
	switch {
	case m == nil:
		plan.Strategy = Skip
		plan.Reason = "cancelled before analysis"
	case node.ParseError || m.ParseError:
		plan.Strategy = Skip
		plan.Reason = "parse error"
	case m.LOC == 0:
		plan.Strategy = Skip
		plan.Reason = "empty file"
	default:
		cent := norm(node.Centrality, maxCent)
		comp := e.thresholds.ComplexityWeight*norm(float64(m.Cyclomatic), maxCC) +
			(1-e.thresholds.ComplexityWeight)*norm(m.Richness, maxRich)
		centHigh := cent >= e.thresholds.HighCentrality
		compHigh := comp >= e.thresholds.HighComplexity

		switch {
		case centHigh && !compHigh:
			plan.Strategy = Full
		case centHigh || compHigh:
			plan.Strategy = Signature
		default:
			plan.Strategy = Minimal
		}
		plan.Reason = fmt.Sprintf("%s centrality (%.2f), %s complexity (%.2f)",
			level(centHigh), cent, level(compHigh), comp)

		if node.EntryPoint && plan.Strategy < Signature {
			plan.Strategy = Signature
			plan.Reason = "entry point, " + plan.Reason
		}
	}
	plan.Routed = plan.Strategy
	e.log.Debug("routed",
		zap.String("path", plan.Path),
		zap.String("strategy", plan.Strategy.String()),
		zap.String("reason", plan.Reason))
	return plan
}

func norm(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max
}

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
