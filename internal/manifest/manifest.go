// Package manifest renders the context-pack artifacts of one run:
// scaffold.md with the extracted content, blueprint.md with the domain
// map, architecture.md with the run overview and manifest.json with
// the machine-readable plan.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/complexity"
	"github.com/distill-dev/distill/internal/config"
	"github.com/distill-dev/distill/internal/fileutil"
	"github.com/distill-dev/distill/internal/graph"
	"github.com/distill-dev/distill/internal/pipeline"
	"github.com/distill-dev/distill/internal/routing"
)

const (
	ScaffoldFile     = "scaffold.md"
	BlueprintFile    = "blueprint.md"
	ArchitectureFile = "architecture.md"
	ManifestFile     = "manifest.json"

	topModules = 5
)

// Meta identifies one run in the manifest: who produced it, when, and
// under which effective configuration.
type Meta struct {
	RunID       string
	Version     string
	GeneratedAt time.Time
	Config      config.Config
}

// Writer writes the artifacts of one run into an output directory.
type Writer struct {
	dir  string
	meta Meta
	log  *zap.Logger
}

// NewWriter creates a writer targeting dir.
func NewWriter(dir string, meta Meta, log *zap.Logger) *Writer {
	return &Writer{dir: dir, meta: meta, log: log.Named("manifest")}
}

// Write renders all four artifacts. Unchanged files are left alone so
// repeated runs on an unchanged repository keep their timestamps.
func (w *Writer) Write(res *pipeline.Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	artifacts := []struct {
		name   string
		render func(*pipeline.Result) ([]byte, error)
	}{
		{ScaffoldFile, w.renderScaffold},
		{BlueprintFile, w.renderBlueprint},
		{ArchitectureFile, w.renderArchitecture},
		{ManifestFile, w.renderManifest},
	}
	for _, a := range artifacts {
		data, err := a.render(res)
		if err != nil {
			return fmt.Errorf("render %s: %w", a.name, err)
		}
		if err := fileutil.WriteIfChanged(filepath.Join(w.dir, a.name), data); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
	}
	w.log.Info("context pack written",
		zap.String("dir", w.dir),
		zap.Int("artifacts", len(artifacts)))
	return nil
}

// renderScaffold emits the extracted content, highest priority first,
// each block naming its committed strategy and routing reason. Files
// the run skipped are listed at the end with the reason they were
// left out.
func (w *Writer) renderScaffold(res *pipeline.Result) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Repository Scaffold: %s\n\n", repoName(res.Root))
	fmt.Fprintf(&b, "**Generated:** %s\n", w.meta.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Budget:** %d / %d tokens (%.1f%% used)\n", res.Stats.Consumed, res.Stats.Limit, res.Stats.Utilization)
	var skipped []*routing.Plan
	for _, plan := range byRank(res.Plans) {
		if plan.Strategy == routing.Skip {
			skipped = append(skipped, plan)
			continue
		}
		content, ok := res.Contents[plan.Path]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n## File: %s\n", plan.Path)
		fmt.Fprintf(&b, "**Strategy:** %s | **Reason:** %s\n", plan.Strategy, plan.Reason)
		fmt.Fprintf(&b, "```%s\n%s\n```\n", res.Languages[plan.Path], strings.TrimRight(string(content), "\n"))
	}
	if len(skipped) > 0 {
		b.WriteString("\n## Skipped\n")
		sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })
		for _, plan := range skipped {
			fmt.Fprintf(&b, "* **%s**: %s\n", plan.Path, plan.Reason)
		}
	}
	return []byte(b.String()), nil
}

// renderBlueprint emits the domain map: the most central modules and
// the densest logic.
func (w *Writer) renderBlueprint(res *pipeline.Result) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Domain Blueprint: %s\n\n", repoName(res.Root))
	b.WriteString("## 1. Core Entities (High Centrality)\n")
	b.WriteString("These modules are the structural foundation of the codebase.\n")
	for _, n := range res.Graph.TopByCentrality(topModules) {
		fmt.Fprintf(&b, "* **%s** (Centrality: %g)\n", n.Path, n.Centrality)
	}
	b.WriteString("\n## 2. Complexity Hotspots (High Difficulty)\n")
	b.WriteString("These modules contain the densest logic.\n")
	for _, m := range topByCyclomatic(res.Metrics, topModules) {
		fmt.Fprintf(&b, "* **%s** (Cyclomatic Complexity: %d)\n", m.Path, m.Cyclomatic)
	}
	b.WriteString("\n## 3. Entry Points\n")
	if entries := entryPoints(res.Graph); len(entries) > 0 {
		for _, p := range entries {
			fmt.Fprintf(&b, "* **%s**\n", p)
		}
	} else {
		b.WriteString("No entry points detected.\n")
	}
	b.WriteString("\n## 4. Import Graph\n")
	fmt.Fprintf(&b, "* **Files:** %d\n", res.Stats.Files)
	fmt.Fprintf(&b, "* **Edges:** %d\n", res.Stats.Edges)
	return []byte(b.String()), nil
}

func (w *Writer) renderArchitecture(res *pipeline.Result) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Architecture Overview: %s\n\n", repoName(res.Root))
	b.WriteString("## Analysis Stats\n")
	fmt.Fprintf(&b, "* **Total Files Analyzed:** %d\n", res.Stats.Files)
	fmt.Fprintf(&b, "* **Import Edges:** %d\n", res.Stats.Edges)
	fmt.Fprintf(&b, "* **Total Tokens Generated:** %d\n", res.Stats.Consumed)
	fmt.Fprintf(&b, "* **Token Budget:** %d\n", res.Stats.Limit)
	fmt.Fprintf(&b, "* **Budget Utilization:** %.1f%%\n", res.Stats.Utilization)

	if entries := entryPoints(res.Graph); len(entries) > 0 {
		b.WriteString("\n## Entry Points\n")
		for _, p := range entries {
			fmt.Fprintf(&b, "* **%s**\n", p)
		}
	}

	b.WriteString("\n## Context Strategy\n")
	b.WriteString("This scaffold was generated with an architecture-first approach.\n")
	fmt.Fprintf(&b, "* **Core modules** were extracted fully (%d files).\n", res.Stats.Strategies[routing.Full.String()])
	fmt.Fprintf(&b, "* **Complex logic** was summarized via signatures (%d files).\n", res.Stats.Strategies[routing.Signature.String()])
	fmt.Fprintf(&b, "* **Utilities** were reduced to documentation (%d files).\n", res.Stats.Strategies[routing.Minimal.String()])
	fmt.Fprintf(&b, "* **Skipped:** %d files.\n", res.Stats.Strategies[routing.Skip.String()])

	if len(res.Ledger.Downgrades) > 0 {
		b.WriteString("\n## Downgrades\n")
		b.WriteString("The budget forced these files below their routed strategy.\n")
		for _, d := range res.Ledger.Downgrades {
			fmt.Fprintf(&b, "* **%s**: %s to %s (%s)\n", d.Path, d.From, d.To, d.Reason)
		}
	}
	return []byte(b.String()), nil
}

type fileMetrics struct {
	LOC                   int     `json:"loc"`
	APICount              int     `json:"api_count"`
	CyclomaticComplexity  int     `json:"cyclomatic_complexity"`
	DocumentationCoverage float64 `json:"documentation_coverage"`
	ContextRichnessScore  float64 `json:"context_richness_score"`
	ParseError            bool    `json:"parse_error,omitempty"`
}

type fileDependencies struct {
	InDegree        int      `json:"in_degree"`
	OutDegree       int      `json:"out_degree"`
	CentralityScore float64  `json:"centrality_score"`
	Dependencies    []string `json:"dependencies"`
	IsEntryPoint    bool     `json:"is_entry_point"`
}

type filePlan struct {
	FilePath           string           `json:"file_path"`
	Metrics            fileMetrics      `json:"metrics"`
	Dependencies       fileDependencies `json:"dependencies"`
	ExtractionStrategy string           `json:"extraction_strategy"`
	RoutedStrategy     string           `json:"routed_strategy"`
	Reason             string           `json:"reason"`
	PriorityRank       int              `json:"priority_rank"`
	TokenCost          int              `json:"token_cost"`
}

type downgradeRecord struct {
	FilePath string `json:"file_path"`
	From     string `json:"from"`
	To       string `json:"to"`
	Reason   string `json:"reason"`
}

type configEcho struct {
	TokenLimit      int      `json:"token_limit"`
	Model           string   `json:"model"`
	OutputDir       string   `json:"output_dir"`
	Languages       []string `json:"languages"`
	EntryPointFloor float64  `json:"entry_point_floor"`
}

type document struct {
	RunID                   string            `json:"run_id"`
	Version                 string            `json:"version"`
	GeneratedAt             time.Time         `json:"generated_at"`
	Repository              string            `json:"repository"`
	Config                  configEcho        `json:"config"`
	TotalTokenBudget        int               `json:"total_token_budget"`
	TotalTokenUsed          int               `json:"total_token_used"`
	UtilizationPct          float64           `json:"utilization_pct"`
	Strategies              map[string]int    `json:"strategies"`
	Cancelled               bool              `json:"cancelled,omitempty"`
	ExtractionManifest      []filePlan        `json:"extraction_manifest"`
	Downgrades              []downgradeRecord `json:"downgrades,omitempty"`
	ArchitectureSummaryLink string            `json:"architecture_summary_link"`
}

func (w *Writer) renderManifest(res *pipeline.Result) ([]byte, error) {
	doc := document{
		RunID:       w.meta.RunID,
		Version:     w.meta.Version,
		GeneratedAt: w.meta.GeneratedAt,
		Repository:  res.Root,
		Config: configEcho{
			TokenLimit:      w.meta.Config.TokenLimit,
			Model:           w.meta.Config.Model,
			OutputDir:       w.meta.Config.OutputDir,
			Languages:       w.meta.Config.Languages,
			EntryPointFloor: w.meta.Config.EntryPointFloor,
		},
		TotalTokenBudget:        res.Stats.Limit,
		TotalTokenUsed:          res.Stats.Consumed,
		UtilizationPct:          res.Stats.Utilization,
		Strategies:              res.Stats.Strategies,
		Cancelled:               res.Stats.Cancelled,
		ArchitectureSummaryLink: ArchitectureFile,
	}
	for _, plan := range res.Plans {
		fp := filePlan{
			FilePath:           plan.Path,
			ExtractionStrategy: plan.Strategy.String(),
			RoutedStrategy:     plan.Routed.String(),
			Reason:             plan.Reason,
			PriorityRank:       plan.Rank,
			TokenCost:          plan.Cost,
		}
		if m := res.Metrics[plan.Path]; m != nil {
			fp.Metrics = fileMetrics{
				LOC:                   m.LOC,
				APICount:              m.APICount,
				CyclomaticComplexity:  m.Cyclomatic,
				DocumentationCoverage: m.DocCoverage,
				ContextRichnessScore:  m.Richness,
				ParseError:            m.ParseError,
			}
		}
		if n := res.Graph.Nodes[plan.Path]; n != nil {
			deps := n.Imports
			if deps == nil {
				deps = []string{}
			}
			fp.Dependencies = fileDependencies{
				InDegree:        n.InDegree,
				OutDegree:       n.OutDegree,
				CentralityScore: n.Centrality,
				Dependencies:    deps,
				IsEntryPoint:    n.EntryPoint,
			}
		}
		doc.ExtractionManifest = append(doc.ExtractionManifest, fp)
	}
	for _, d := range res.Ledger.Downgrades {
		doc.Downgrades = append(doc.Downgrades, downgradeRecord{
			FilePath: d.Path,
			From:     d.From.String(),
			To:       d.To.String(),
			Reason:   d.Reason,
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func byRank(plans []*routing.Plan) []*routing.Plan {
	ordered := make([]*routing.Plan, len(plans))
	copy(ordered, plans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })
	return ordered
}

func topByCyclomatic(metrics map[string]*complexity.Metrics, limit int) []*complexity.Metrics {
	out := make([]*complexity.Metrics, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cyclomatic != out[j].Cyclomatic {
			return out[i].Cyclomatic > out[j].Cyclomatic
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func entryPoints(g *graph.Graph) []string {
	var out []string
	for _, p := range g.Paths() {
		if g.Nodes[p].EntryPoint {
			out = append(out, p)
		}
	}
	return out
}

func repoName(root string) string {
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		if abs, err := filepath.Abs(root); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}
