// Package pipeline runs the analysis phases for one repository and
// assembles the extraction result. Graph and complexity analysis share
// no data and run concurrently; routing and budgeting run strictly
// after both.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/distill-dev/distill/internal/budget"
	"github.com/distill-dev/distill/internal/complexity"
	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/extract"
	"github.com/distill-dev/distill/internal/graph"
	"github.com/distill-dev/distill/internal/ignore"
	"github.com/distill-dev/distill/internal/languages"
	"github.com/distill-dev/distill/internal/routing"
	"github.com/distill-dev/distill/internal/source"
	"github.com/distill-dev/distill/internal/tokens"
)

// Stats summarizes one run.
type Stats struct {
	Files       int
	Edges       int
	Limit       int
	Consumed    int
	Utilization float64
	Strategies  map[string]int
	Downgrades  int
	Cancelled   bool
}

// Result is the full output of one repository run. Languages maps
// each file to its detected language for rendering.
type Result struct {
	Root      string
	Plans     []*routing.Plan
	Contents  map[string][]byte
	Graph     *graph.Graph
	Metrics   map[string]*complexity.Metrics
	Ledger    *budget.Ledger
	Languages map[string]string
	Stats     Stats
}

// Pipeline analyzes repositories under one configuration.
type Pipeline struct {
	cfg config.Config
	log *zap.Logger
}

// New creates a pipeline.
func New(cfg config.Config, log *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Run analyzes the repository at root. Cancellation mid-run still
// yields a complete result: files the analysis phases never reached
// are committed SKIP, so the manifest is never partial.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	registry, err := languages.NewRegistryFor(p.cfg.Languages)
	if err != nil {
		return nil, err
	}
	matcher, err := ignore.ForRoot(root)
	if err != nil {
		return nil, err
	}
	set, err := source.Scan(ctx, root, matcher.ShouldIgnore, registry, p.log)
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("no analyzable files under %s", root)
	}
	p.log.Info("scanned repository", zap.String("root", root), zap.Int("files", set.Len()))

	var (
		g       *graph.Graph
		metrics map[string]*complexity.Metrics
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g = graph.NewBuilder(set, p.cfg.EntryPointFloor, p.log).Build(egctx)
		return nil
	})
	eg.Go(func() error {
		weights := complexity.Weights{
			APIWeight:  p.cfg.Richness.APIWeight,
			LOCDivisor: p.cfg.Richness.LOCDivisor,
			Cap:        p.cfg.Richness.Cap,
		}
		metrics = complexity.NewAnalyzer(set, weights, p.log).Analyze(egctx)
		return nil
	})
	// Both phases report partial progress instead of errors.
	_ = eg.Wait()

	thresholds := routing.Thresholds{
		HighCentrality:   p.cfg.Routing.HighCentrality,
		HighComplexity:   p.cfg.Routing.HighComplexity,
		ComplexityWeight: p.cfg.Routing.ComplexityWeight,
	}
	plans := routing.NewEngine(thresholds, p.log).Route(g, metrics)

	orch := budget.NewOrchestrator(extract.New(set), p.counter(), p.log)
	ledger, contents := orch.Commit(ctx, plans, g, metrics, p.cfg.TokenLimit)

	langs := make(map[string]string, set.Len())
	for _, f := range set.Files() {
		langs[f.Path] = f.Language
	}
	res := &Result{
		Root:      root,
		Plans:     plans,
		Contents:  contents,
		Graph:     g,
		Metrics:   metrics,
		Ledger:    ledger,
		Languages: langs,
	}
	res.Stats = stats(res, ctx.Err() != nil)
	p.log.Info("analysis complete",
		zap.Int("files", res.Stats.Files),
		zap.Int("edges", res.Stats.Edges),
		zap.Int("consumed", res.Stats.Consumed),
		zap.Float64("utilization_pct", res.Stats.Utilization),
		zap.Int("downgrades", res.Stats.Downgrades),
		zap.Bool("cancelled", res.Stats.Cancelled))
	return res, nil
}

// counter picks the token counter: the model's BPE encoding, or the
// chars-per-token heuristic when the model is "heuristic", unset, or
// its encoding cannot be loaded.
func (p *Pipeline) counter() tokens.Counter {
	if p.cfg.Model == "" || p.cfg.Model == tokens.HeuristicModel {
		return tokens.NewHeuristic()
	}
	c, err := tokens.NewTiktoken(p.cfg.Model)
	if err != nil {
		p.log.Warn("tokenizer unavailable, falling back to heuristic",
			zap.String("model", p.cfg.Model), zap.Error(err))
		return tokens.NewHeuristic()
	}
	return c
}

func stats(res *Result, cancelled bool) Stats {
	s := Stats{
		Files:       len(res.Plans),
		Edges:       res.Graph.EdgeCount,
		Limit:       res.Ledger.Limit,
		Consumed:    res.Ledger.Consumed,
		Utilization: res.Ledger.Utilization(),
		Strategies:  make(map[string]int, 4),
		Downgrades:  len(res.Ledger.Downgrades),
		Cancelled:   cancelled,
	}
	for _, plan := range res.Plans {
		s.Strategies[plan.Strategy.String()]++
	}
	return s
}
