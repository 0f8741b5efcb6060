package syntax

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// Adapter is the per-language syntax-tree capability. The analysis
// engine depends only on this interface, never on a concrete grammar.
type Adapter interface {
	// Language returns the adapter key, e.g. "python".
	Language() string

	// Extensions returns the file extensions this adapter claims,
	// primary extension first.
	Extensions() []string

	// Parse builds the structural view of one file. A syntactically
	// broken file returns an error; the caller treats that as a soft
	// per-file failure.
	Parse(ctx context.Context, filename string, content []byte) (*File, error)

	// StripBodies rewrites content so that every function and class
	// body keeps only its leading doc block and nested definitions,
	// with removed regions replaced by an elision marker. The result
	// must re-parse cleanly.
	StripBodies(ctx context.Context, content []byte) ([]byte, error)

	// IndexNames returns candidate package-index filenames for a
	// directory named base ("pkg" -> ["__init__.py"] for Python,
	// ["pkg.go"] for Go). Empty means the language has no index form.
	IndexNames(base string) []string

	// CommentPrefixes returns full-line comment markers used when
	// counting lines of code.
	CommentPrefixes() []string
}

// Registry maps file extensions to adapters.
type Registry struct {
	adapters []Adapter
	byExt    map[string]Adapter
}

// NewRegistry builds a registry; later adapters win extension conflicts.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byExt: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
	for _, ext := range a.Extensions() {
		r.byExt[strings.ToLower(ext)] = a
	}
}

// ForPath returns the adapter claiming the file's extension.
func (r *Registry) ForPath(path string) (Adapter, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	a, ok := r.byExt[ext]
	return a, ok
}

// Languages returns the registered language keys, sorted.
func (r *Registry) Languages() []string {
	seen := make(map[string]bool, len(r.adapters))
	out := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		if seen[a.Language()] {
			continue
		}
		seen[a.Language()] = true
		out = append(out, a.Language())
	}
	sort.Strings(out)
	return out
}
