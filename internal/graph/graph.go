// Package graph builds the file-level dependency graph of one
// repository: import edges, degrees, entry points and centrality.
package graph

import (
	"context"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/source"
	"github.com/distill-dev/distill/internal/syntax"
)

// Node is one file with its dependency metrics.
type Node struct {
	Path       string
	Imports    []string // resolved internal targets, deduplicated, sorted
	InDegree   int
	OutDegree  int
	EntryPoint bool
	Centrality float64
	ParseError bool
}

// Graph holds the nodes of one repository keyed by path.
type Graph struct {
	Nodes     map[string]*Node
	EdgeCount int

	paths []string
}

// Paths returns every node path in sorted order.
func (g *Graph) Paths() []string {
	return g.paths
}

// MaxCentrality returns the repository's centrality maximum.
func (g *Graph) MaxCentrality() float64 {
	max := 0.0
	for _, n := range g.Nodes {
		if n.Centrality > max {
			max = n.Centrality
		}
	}
	return max
}

// TopByCentrality returns up to limit nodes ordered by descending
// centrality, ties broken by path.
func (g *Graph) TopByCentrality(limit int) []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Centrality != nodes[j].Centrality {
			return nodes[i].Centrality > nodes[j].Centrality
		}
		return nodes[i].Path < nodes[j].Path
	})
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return nodes
}

// Builder builds the dependency graph from a scanned file set.
type Builder struct {
	set   *source.Set
	floor float64
	log   *zap.Logger
}

// NewBuilder creates a builder. entryPointFloor is the minimum
// centrality granted to entry-point files so a zero-dependent entry
// point is never classified peripheral.
func NewBuilder(set *source.Set, entryPointFloor float64, log *zap.Logger) *Builder {
	return &Builder{set: set, floor: entryPointFloor, log: log.Named("graph")}
}

// Build walks the file set and produces the graph. A file that fails
// to parse contributes no edges and is marked, analysis continues. On
// context cancellation the remaining files are left unprocessed; the
// caller finalizes them.
func (b *Builder) Build(ctx context.Context) *Graph {
	g := &Graph{Nodes: make(map[string]*Node, b.set.Len())}
	for _, f := range b.set.Files() {
		g.Nodes[f.Path] = &Node{Path: f.Path}
		g.paths = append(g.paths, f.Path)
	}

	for _, f := range b.set.Files() {
		if ctx.Err() != nil {
			break
		}
		node := g.Nodes[f.Path]
		parsed, err := b.set.Parse(ctx, f)
		if err != nil {
			node.ParseError = true
			b.log.Warn("parse failed", zap.String("path", f.Path), zap.Error(err))
			continue
		}
		node.EntryPoint = parsed.EntryPoint

		adapter, ok := b.set.Adapter(f)
		if !ok {
			continue
		}
		targets := make(map[string]bool)
		for _, imp := range parsed.Imports {
			target, ok := b.resolve(imp, f.Path, adapter)
			if !ok || target == f.Path {
				continue
			}
			targets[target] = true
		}
		node.Imports = make([]string, 0, len(targets))
		for t := range targets {
			node.Imports = append(node.Imports, t)
		}
		sort.Strings(node.Imports)
		node.OutDegree = len(node.Imports)
		g.EdgeCount += len(node.Imports)
	}

	for _, p := range g.paths {
		for _, t := range g.Nodes[p].Imports {
			g.Nodes[t].InDegree++
		}
	}
	for _, n := range g.Nodes {
		n.Centrality = float64(n.InDegree)
		if n.EntryPoint && n.Centrality < b.floor {
			n.Centrality = b.floor
		}
	}
	return g
}

// resolve maps one import to an internal file, or reports it external.
// Relative imports anchor at the importing file's directory minus
// level-1 ancestors. A from-style member is tried as a submodule
// before falling back to the module itself.
func (b *Builder) resolve(imp syntax.Import, fromPath string, adapter syntax.Adapter) (string, bool) {
	anchor := ""
	if imp.Level > 0 {
		anchor = path.Dir(fromPath)
		for i := 0; i < imp.Level-1; i++ {
			if anchor == "." {
				return "", false
			}
			anchor = path.Dir(anchor)
		}
		if anchor == "." {
			anchor = ""
		}
	}

	if imp.Member != "" {
		full := imp.Member
		if imp.Module != "" {
			full = imp.Module + "." + imp.Member
		}
		if target, ok := b.candidate(anchor, full, adapter); ok {
			return target, true
		}
	}
	if imp.Module == "" {
		if imp.Level == 0 {
			return "", false
		}
		return b.anchorIndex(anchor, adapter)
	}
	return b.candidate(anchor, imp.Module, adapter)
}

// candidate tests both resolution forms for a module path: a package
// index inside a same-named directory and a direct file. When both
// exist the package index wins; the collision is logged, never fatal.
func (b *Builder) candidate(anchor, module string, adapter syntax.Adapter) (string, bool) {
	rel := moduleToPath(module)
	base := rel
	if anchor != "" {
		base = path.Join(anchor, rel)
	}

	index := ""
	for _, name := range adapter.IndexNames(path.Base(base)) {
		p := path.Join(base, name)
		if b.set.Has(p) {
			index = p
			break
		}
	}
	direct := ""
	for _, ext := range adapter.Extensions() {
		p := base + ext
		if b.set.Has(p) {
			direct = p
			break
		}
	}

	switch {
	case index != "" && direct != "":
		b.log.Warn("ambiguous import target, package index preferred",
			zap.String("module", module),
			zap.String("index", index),
			zap.String("file", direct))
		return index, true
	case index != "":
		return index, true
	case direct != "":
		return direct, true
	}
	return "", false
}

// anchorIndex resolves a bare relative import (from . import x that
// fell through member resolution) to the anchor directory's own index.
func (b *Builder) anchorIndex(anchor string, adapter syntax.Adapter) (string, bool) {
	for _, name := range adapter.IndexNames(path.Base(anchor)) {
		p := name
		if anchor != "" {
			p = path.Join(anchor, name)
		}
		if b.set.Has(p) {
			return p, true
		}
	}
	return "", false
}

// moduleToPath translates a dotted module path to a repo-relative
// path. Already-slashed paths pass through unchanged.
func moduleToPath(module string) string {
	if strings.Contains(module, "/") {
		return module
	}
	return strings.ReplaceAll(module, ".", "/")
}
