package syntax

// DefKind classifies a definition extracted from source.
type DefKind int

const (
	KindFunction DefKind = iota
	KindMethod
	KindClass
	KindType
)

func (k DefKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	case KindType:
		return "type"
	default:
		return "unknown"
	}
}

// Definition is one function, method, class or type declaration.
// Children holds definitions nested inside its body, at any depth.
type Definition struct {
	Name      string
	Kind      DefKind
	Signature string
	Doc       string
	Line      int
	Children  []Definition
}

// Import is one import statement with enough fidelity to resolve it:
// the referenced module path, the relative level (ancestor hops, zero
// for absolute imports) and the bound alias, if any. Member carries an
// imported name from a from-style import; resolution tries it as a
// submodule of Module before falling back to Module itself.
type Import struct {
	Module string
	Level  int
	Member string
	Alias  string
	Line   int
}

// File is the parsed structural view of one source file.
type File struct {
	Path        string
	Language    string
	ModuleDoc   string
	Imports     []Import
	Definitions []Definition
	EntryPoint  bool

	// Decisions counts decision points (branches, loops, exception
	// handlers, short-circuit operators, match arms) across the file.
	Decisions int
}

// WalkDefinitions visits every definition in f depth-first, parents
// before children. depth starts at 0 for top-level definitions.
func (f *File) WalkDefinitions(visit func(d *Definition, depth int)) {
	var walk func(defs []Definition, depth int)
	walk = func(defs []Definition, depth int) {
		for i := range defs {
			visit(&defs[i], depth)
			walk(defs[i].Children, depth+1)
		}
	}
	walk(f.Definitions, 0)
}

// DefinitionCount returns the number of definitions including nested ones.
func (f *File) DefinitionCount() int {
	n := 0
	f.WalkDefinitions(func(*Definition, int) { n++ })
	return n
}
