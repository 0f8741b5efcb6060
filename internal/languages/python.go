package languages

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/distill-dev/distill/internal/syntax"
)

const pythonElision = "..."

// pythonDecisionTypes are the node types that open an independent path
// through the code: branches, loops, handlers, short-circuit operators
// and match arms.
var pythonDecisionTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"conditional_expression": true,
	"for_statement":          true,
	"while_statement":        true,
	"for_in_clause":          true,
	"if_clause":              true,
	"except_clause":          true,
	"boolean_operator":       true,
	"case_clause":            true,
}

// PythonAdapter implements the syntax capability for Python sources.
type PythonAdapter struct{}

var _ syntax.Adapter = (*PythonAdapter)(nil)

// NewPythonAdapter creates a new Python adapter.
func NewPythonAdapter() *PythonAdapter {
	return &PythonAdapter{}
}

func (p *PythonAdapter) Language() string {
	return "python"
}

func (p *PythonAdapter) Extensions() []string {
	return []string{".py", ".pyw"}
}

func (p *PythonAdapter) IndexNames(base string) []string {
	return []string{"__init__.py"}
}

func (p *PythonAdapter) CommentPrefixes() []string {
	return []string{"#"}
}

// newParser returns a fresh tree-sitter parser. Parser instances are
// not safe for concurrent use, so each call gets its own.
func (p *PythonAdapter) newParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser
}

func (p *PythonAdapter) Parse(ctx context.Context, filename string, content []byte) (*syntax.File, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: invalid utf-8", filename)
	}
	tree, err := p.newParser().ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s: syntax errors", filename)
	}

	f := &syntax.File{
		Path:      filename,
		Language:  "python",
		ModuleDoc: pythonDocstring(root, content),
	}
	f.Definitions = p.collect(root, content, f, false)

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "if_statement" && isMainGuard(child.ChildByFieldName("condition"), content) {
			f.EntryPoint = true
			break
		}
	}

	return f, nil
}

// collect walks node's subtree gathering imports and decision points
// into f and returns the definitions found at this scope. Definitions
// nested inside another definition become its children instead.
func (p *PythonAdapter) collect(node *sitter.Node, content []byte, f *syntax.File, inClass bool) []syntax.Definition {
	var defs []syntax.Definition
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_definition":
			defs = append(defs, p.functionDef(child, content, f, inClass))
		case "class_definition":
			defs = append(defs, p.classDef(child, content, f))
		case "decorated_definition":
			inner := child.ChildByFieldName("definition")
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "function_definition":
				defs = append(defs, p.functionDef(inner, content, f, inClass))
			case "class_definition":
				defs = append(defs, p.classDef(inner, content, f))
			}
		case "import_statement":
			f.Imports = append(f.Imports, p.plainImports(child, content)...)
		case "import_from_statement":
			f.Imports = append(f.Imports, p.fromImports(child, content)...)
		default:
			if pythonDecisionTypes[child.Type()] {
				f.Decisions++
			}
			defs = append(defs, p.collect(child, content, f, inClass)...)
		}
	}
	return defs
}

func (p *PythonAdapter) functionDef(node *sitter.Node, content []byte, f *syntax.File, inClass bool) syntax.Definition {
	kind := syntax.KindFunction
	if inClass {
		kind = syntax.KindMethod
	}
	d := syntax.Definition{
		Name:      text(node.ChildByFieldName("name"), content),
		Kind:      kind,
		Signature: pythonFunctionSignature(node, content),
		Line:      int(node.StartPoint().Row) + 1,
	}
	if body := node.ChildByFieldName("body"); body != nil {
		d.Doc = pythonDocstring(body, content)
		d.Children = p.collect(body, content, f, false)
	}
	return d
}

func (p *PythonAdapter) classDef(node *sitter.Node, content []byte, f *syntax.File) syntax.Definition {
	d := syntax.Definition{
		Name:      text(node.ChildByFieldName("name"), content),
		Kind:      syntax.KindClass,
		Signature: pythonClassSignature(node, content),
		Line:      int(node.StartPoint().Row) + 1,
	}
	if body := node.ChildByFieldName("body"); body != nil {
		d.Doc = pythonDocstring(body, content)
		d.Children = p.collect(body, content, f, true)
	}
	return d
}

func (p *PythonAdapter) plainImports(node *sitter.Node, content []byte) []syntax.Import {
	var out []syntax.Import
	line := int(node.StartPoint().Row) + 1
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			if module := strings.TrimSpace(text(child, content)); module != "" {
				out = append(out, syntax.Import{Module: module, Line: line})
			}
		case "aliased_import":
			module := strings.TrimSpace(text(child.ChildByFieldName("name"), content))
			alias := strings.TrimSpace(text(child.ChildByFieldName("alias"), content))
			if module != "" {
				out = append(out, syntax.Import{Module: module, Alias: alias, Line: line})
			}
		}
	}
	return out
}

func (p *PythonAdapter) fromImports(node *sitter.Node, content []byte) []syntax.Import {
	line := int(node.StartPoint().Row) + 1
	module := ""
	level := 0

	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}
	if moduleNode.Type() == "relative_import" {
		for i := 0; i < int(moduleNode.ChildCount()); i++ {
			child := moduleNode.Child(i)
			switch child.Type() {
			case "import_prefix":
				level = strings.Count(text(child, content), ".")
			case "dotted_name":
				module = strings.TrimSpace(text(child, content))
			}
		}
	} else {
		module = strings.TrimSpace(text(moduleNode, content))
	}
	if module == "" && level == 0 {
		return nil
	}

	var out []syntax.Import
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		child := node.Child(i)
		switch child.Type() {
		case "aliased_import":
			member := strings.TrimSpace(text(child.ChildByFieldName("name"), content))
			alias := strings.TrimSpace(text(child.ChildByFieldName("alias"), content))
			out = append(out, syntax.Import{Module: module, Level: level, Member: member, Alias: alias, Line: line})
		case "dotted_name", "identifier":
			member := strings.TrimSpace(text(child, content))
			out = append(out, syntax.Import{Module: module, Level: level, Member: member, Line: line})
		}
	}
	if len(out) == 0 {
		// Wildcard or bare from-import still depends on the module.
		out = append(out, syntax.Import{Module: module, Level: level, Line: line})
	}
	return out
}

// StripBodies reduces every function and class body to its leading
// docstring plus nested definitions, eliding the rest. The output is
// valid Python.
func (p *PythonAdapter) StripBodies(ctx context.Context, content []byte) ([]byte, error) {
	tree, err := p.newParser().ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax errors")
	}

	var spans []span
	collectPythonElisions(root, &spans)
	return applySpans(content, spans), nil
}

func collectPythonElisions(node *sitter.Node, spans *[]span) {
	if node.Type() == "function_definition" || node.Type() == "class_definition" {
		if body := node.ChildByFieldName("body"); body != nil {
			elidePythonBody(body, spans)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectPythonElisions(node.Child(i), spans)
	}
}

// elidePythonBody replaces each run of removable statements in a block
// with the elision marker. Kept statements: a leading docstring, plus
// any statement that is or contains a definition (so nested signatures
// survive even under conditionals).
func elidePythonBody(body *sitter.Node, spans *[]span) {
	var runStart, runEnd *sitter.Node
	flush := func() {
		if runStart == nil {
			return
		}
		*spans = append(*spans, span{start: runStart.StartByte(), end: runEnd.EndByte(), replacement: pythonElision})
		runStart, runEnd = nil, nil
	}
	seenStatement := false
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if keepInPythonBody(child, !seenStatement) {
			seenStatement = true
			flush()
			continue
		}
		if child.Type() != "comment" {
			seenStatement = true
		}
		if runStart == nil {
			runStart = child
		}
		runEnd = child
	}
	flush()
}

func keepInPythonBody(node *sitter.Node, first bool) bool {
	switch node.Type() {
	case "function_definition", "class_definition", "decorated_definition":
		return true
	case "expression_statement":
		if first && isDocstringStatement(node) {
			return true
		}
	}
	return containsPythonDefinition(node)
}

func isDocstringStatement(node *sitter.Node) bool {
	return node.ChildCount() > 0 && node.Child(0).Type() == "string"
}

func containsPythonDefinition(node *sitter.Node) bool {
	switch node.Type() {
	case "function_definition", "class_definition", "decorated_definition":
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if containsPythonDefinition(node.Child(i)) {
			return true
		}
	}
	return false
}

// pythonDocstring returns the cleaned docstring of a module or block
// node, taken from its first statement when that is a bare string.
func pythonDocstring(scope *sitter.Node, content []byte) string {
	for i := 0; i < int(scope.ChildCount()); i++ {
		child := scope.Child(i)
		if child.Type() == "comment" {
			continue
		}
		if child.Type() != "expression_statement" || child.ChildCount() == 0 {
			return ""
		}
		expr := child.Child(0)
		if expr.Type() != "string" {
			return ""
		}
		return cleanDocstring(text(expr, content))
	}
	return ""
}

func pythonFunctionSignature(node *sitter.Node, content []byte) string {
	sig := "def"
	if name := node.ChildByFieldName("name"); name != nil {
		sig += " " + text(name, content)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += text(params, content)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig += " -> " + text(ret, content)
	}
	return sig
}

func pythonClassSignature(node *sitter.Node, content []byte) string {
	sig := "class"
	if name := node.ChildByFieldName("name"); name != nil {
		sig += " " + text(name, content)
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		sig += text(supers, content)
	}
	return sig
}

// isMainGuard reports whether a conditional compares __name__ against
// the "__main__" sentinel, in either operand order.
func isMainGuard(cond *sitter.Node, content []byte) bool {
	if cond == nil {
		return false
	}
	var hasName, hasMain bool
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier":
			if text(n, content) == "__name__" {
				hasName = true
			}
		case "string":
			if strings.Contains(text(n, content), "__main__") {
				hasMain = true
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(cond)
	return hasName && hasMain
}
