// Package extract renders file content at a committed extraction
// strategy. Rendering is a pure function of file content and strategy;
// no state is shared between files.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/distill-dev/distill/internal/routing"
	"github.com/distill-dev/distill/internal/source"
	"github.com/distill-dev/distill/internal/syntax"
)

// NoDocPlaceholder is the MINIMAL rendering of a file carrying no
// documentation anywhere.
const NoDocPlaceholder = "No documentation available."

// Extractor renders strategies over one scanned file set.
type Extractor struct {
	set *source.Set
}

// New creates an extractor over a file set.
func New(set *source.Set) *Extractor {
	return &Extractor{set: set}
}

// Render produces the output for one file at the given strategy. Skip
// renders to nil. FULL returns the content verbatim, SIGNATURE elides
// bodies while keeping every signature re-parseable, and MINIMAL keeps
// only documentation at every nesting depth.
func (e *Extractor) Render(ctx context.Context, path string, strategy routing.Strategy) ([]byte, error) {
	f, ok := e.set.Get(path)
	if !ok {
		return nil, fmt.Errorf("unknown file %q", path)
	}
	if f.ReadError != "" {
		return nil, errors.New(f.ReadError)
	}

	switch strategy {
	case routing.Skip:
		return nil, nil
	case routing.Full:
		return f.Content, nil
	case routing.Signature:
		adapter, ok := e.set.Adapter(f)
		if !ok {
			return nil, fmt.Errorf("no language adapter for %q", path)
		}
		return adapter.StripBodies(ctx, f.Content)
	case routing.Minimal:
		parsed, err := e.set.Parse(ctx, f)
		if err != nil {
			return nil, err
		}
		return renderMinimal(parsed), nil
	default:
		return nil, fmt.Errorf("unknown strategy %d", strategy)
	}
}

// renderMinimal emits the module documentation plus, for every
// documented definition at any depth, its signature followed by the
// documentation. Files documenting only a nested member still surface
// that text.
func renderMinimal(f *syntax.File) []byte {
	var b strings.Builder
	if doc := strings.TrimSpace(f.ModuleDoc); doc != "" {
		b.WriteString(doc)
		b.WriteString("\n")
	}
	f.WalkDefinitions(func(d *syntax.Definition, depth int) {
		doc := strings.TrimSpace(d.Doc)
		if doc == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Signature)
		b.WriteString("\n")
		for _, line := range strings.Split(doc, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	})
	if b.Len() == 0 {
		return []byte(NoDocPlaceholder + "\n")
	}
	return []byte(b.String())
}
