package languages

import (
	"fmt"

	"github.com/distill-dev/distill/internal/syntax"
)

// NewDefaultRegistry creates a registry with all supported language adapters.
func NewDefaultRegistry() *syntax.Registry {
	return syntax.NewRegistry(
		NewPythonAdapter(),
		NewGoAdapter(),
	)
}

// NewRegistryFor creates a registry restricted to the named languages.
// An empty list means all supported languages.
func NewRegistryFor(names []string) (*syntax.Registry, error) {
	if len(names) == 0 {
		return NewDefaultRegistry(), nil
	}
	available := map[string]syntax.Adapter{
		"python": NewPythonAdapter(),
		"go":     NewGoAdapter(),
	}
	r := syntax.NewRegistry()
	for _, name := range names {
		a, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unsupported language %q", name)
		}
		r.Register(a)
	}
	return r, nil
}
