// Package budget enforces the token ceiling over routed plans. The
// orchestrator is a greedy, priority-ordered single pass: it spends
// the budget on the most central, least complex files first and never
// revisits a committed file.
package budget

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/complexity"
	"github.com/distill-dev/distill/internal/extract"
	"github.com/distill-dev/distill/internal/graph"
	"github.com/distill-dev/distill/internal/routing"
	"github.com/distill-dev/distill/internal/tokens"
)

// Downgrade records one plan committed below its routed strategy.
type Downgrade struct {
	Path   string
	From   routing.Strategy
	To     routing.Strategy
	Reason string
}

// Ledger is the running account of the orchestration pass.
type Ledger struct {
	Limit      int
	Consumed   int
	Costs      map[string]int
	Downgrades []Downgrade
}

// Utilization returns consumed budget as a percentage of the limit.
func (l *Ledger) Utilization() float64 {
	if l.Limit <= 0 {
		return 0
	}
	return float64(l.Consumed) / float64(l.Limit) * 100
}

// Orchestrator commits plans against a fixed budget.
type Orchestrator struct {
	extractor *extract.Extractor
	counter   tokens.Counter
	log       *zap.Logger
}

// NewOrchestrator creates an orchestrator using the given extractor
// and token counter.
func NewOrchestrator(extractor *extract.Extractor, counter tokens.Counter, log *zap.Logger) *Orchestrator {
	return &Orchestrator{extractor: extractor, counter: counter, log: log.Named("budget")}
}

// Commit walks the plans in priority order and commits each at the
// strongest strategy that fits the remaining budget, downgrading
// FULL -> SIGNATURE -> MINIMAL -> SKIP until one fits. SKIP always
// fits at zero cost, so every file ends with exactly one committed
// plan and consumed never exceeds the limit. Plans are mutated in
// place; the returned map holds rendered content for every non-SKIP
// plan.
func (o *Orchestrator) Commit(ctx context.Context, plans []*routing.Plan, g *graph.Graph, metrics map[string]*complexity.Metrics, limit int) (*Ledger, map[string][]byte) {
	ledger := &Ledger{Limit: limit, Costs: make(map[string]int, len(plans))}
	contents := make(map[string][]byte)

	for rank, plan := range o.prioritize(plans, g, metrics) {
		plan.Rank = rank + 1
		strategy := plan.Strategy
		reason := "budget exhausted"
		var content []byte
		cost := 0

		for strategy != routing.Skip {
			rendered, err := o.extractor.Render(ctx, plan.Path, strategy)
			if err != nil {
				if ctx.Err() != nil {
					reason = "cancelled"
				} else {
					reason = "render failed"
					o.log.Warn("render failed",
						zap.String("path", plan.Path),
						zap.String("strategy", strategy.String()),
						zap.Error(err))
				}
				strategy = routing.Skip
				break
			}
			c := o.counter.CountTokens(string(rendered))
			if ledger.Consumed+c <= limit {
				content, cost = rendered, c
				break
			}
			strategy = strategy.Downgrade()
		}

		plan.Strategy = strategy
		plan.Cost = cost
		ledger.Consumed += cost
		ledger.Costs[plan.Path] = cost
		if strategy != routing.Skip {
			contents[plan.Path] = content
		}
		if strategy < plan.Routed {
			ledger.Downgrades = append(ledger.Downgrades, Downgrade{
				Path:   plan.Path,
				From:   plan.Routed,
				To:     strategy,
				Reason: reason,
			})
			o.log.Debug("downgraded",
				zap.String("path", plan.Path),
				zap.String("from", plan.Routed.String()),
				zap.String("to", strategy.String()),
				zap.String("reason", reason))
		}
	}

	o.log.Info("budget committed",
		zap.Int("limit", limit),
		zap.Int("consumed", ledger.Consumed),
		zap.Int("downgrades", len(ledger.Downgrades)))
	return ledger, contents
}

// prioritize orders plans by descending centrality, ties by ascending
// cyclomatic complexity, then by path. The input slice is left alone.
func (o *Orchestrator) prioritize(plans []*routing.Plan, g *graph.Graph, metrics map[string]*complexity.Metrics) []*routing.Plan {
	ordered := make([]*routing.Plan, len(plans))
	copy(ordered, plans)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := centralityOf(g, ordered[i].Path), centralityOf(g, ordered[j].Path)
		if ci != cj {
			return ci > cj
		}
		cci, ccj := cyclomaticOf(metrics, ordered[i].Path), cyclomaticOf(metrics, ordered[j].Path)
		if cci != ccj {
			return cci < ccj
		}
		return ordered[i].Path < ordered[j].Path
	})
	return ordered
}

func centralityOf(g *graph.Graph, path string) float64 {
	if n, ok := g.Nodes[path]; ok {
		return n.Centrality
	}
	return 0
}

func cyclomaticOf(metrics map[string]*complexity.Metrics, path string) int {
	if m, ok := metrics[path]; ok {
		return m.Cyclomatic
	}
	return 0
}
