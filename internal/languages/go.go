package languages

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/distill-dev/distill/internal/syntax"
)

const goElision = "// ..."

var goDecisionTypes = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"expression_case":    true,
	"type_case":          true,
	"communication_case": true,
}

// GoAdapter implements the syntax capability for Go sources.
type GoAdapter struct{}

var _ syntax.Adapter = (*GoAdapter)(nil)

// NewGoAdapter creates a new Go adapter.
func NewGoAdapter() *GoAdapter {
	return &GoAdapter{}
}

func (g *GoAdapter) Language() string {
	return "go"
}

func (g *GoAdapter) Extensions() []string {
	return []string{".go"}
}

// IndexNames treats a same-named file inside the package directory as
// the package index, e.g. util/util.go for an import of util.
func (g *GoAdapter) IndexNames(base string) []string {
	return []string{base + ".go"}
}

func (g *GoAdapter) CommentPrefixes() []string {
	return []string{"//"}
}

func (g *GoAdapter) newParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	return parser
}

func (g *GoAdapter) Parse(ctx context.Context, filename string, content []byte) (*syntax.File, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: invalid utf-8", filename)
	}
	tree, err := g.newParser().ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s: syntax errors", filename)
	}

	f := &syntax.File{Path: filename, Language: "go"}

	packageMain := false
	hasMainFunc := false
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_clause":
			if goPackageName(child, content) == "main" {
				packageMain = true
			}
			f.ModuleDoc = precedingComments(child, content)
		case "import_declaration":
			f.Imports = append(f.Imports, g.extractImports(child, content)...)
		case "function_declaration":
			d := g.functionDef(child, content)
			if d.Name == "main" {
				hasMainFunc = true
			}
			f.Definitions = append(f.Definitions, d)
		case "method_declaration":
			f.Definitions = append(f.Definitions, g.methodDef(child, content))
		case "type_declaration":
			f.Definitions = append(f.Definitions, g.typeDefs(child, content)...)
		}
	}
	f.EntryPoint = packageMain && hasMainFunc

	g.countDecisions(root, content, f)

	return f, nil
}

func (g *GoAdapter) functionDef(node *sitter.Node, content []byte) syntax.Definition {
	return syntax.Definition{
		Name:      text(node.ChildByFieldName("name"), content),
		Kind:      syntax.KindFunction,
		Signature: goFunctionSignature(node, content),
		Doc:       precedingComments(node, content),
		Line:      int(node.StartPoint().Row) + 1,
	}
}

func (g *GoAdapter) methodDef(node *sitter.Node, content []byte) syntax.Definition {
	return syntax.Definition{
		Name:      text(node.ChildByFieldName("name"), content),
		Kind:      syntax.KindMethod,
		Signature: goFunctionSignature(node, content),
		Doc:       precedingComments(node, content),
		Line:      int(node.StartPoint().Row) + 1,
	}
}

func (g *GoAdapter) typeDefs(node *sitter.Node, content []byte) []syntax.Definition {
	var out []syntax.Definition
	declDoc := precedingComments(node, content)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		doc := precedingComments(child, content)
		if doc == "" {
			doc = declDoc
			declDoc = ""
		}
		out = append(out, syntax.Definition{
			Name:      text(nameNode, content),
			Kind:      syntax.KindType,
			Signature: goTypeSignature(child, content),
			Doc:       doc,
			Line:      int(child.StartPoint().Row) + 1,
		})
	}
	return out
}

func (g *GoAdapter) extractImports(node *sitter.Node, content []byte) []syntax.Import {
	var out []syntax.Import
	var walkSpecs func(n *sitter.Node)
	walkSpecs = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "import_spec":
				if imp, ok := g.readImportSpec(child, content); ok {
					out = append(out, imp)
				}
			case "import_spec_list":
				walkSpecs(child)
			}
		}
	}
	walkSpecs(node)
	return out
}

func (g *GoAdapter) readImportSpec(spec *sitter.Node, content []byte) (syntax.Import, bool) {
	pathNode := spec.ChildByFieldName("path")
	if pathNode == nil {
		return syntax.Import{}, false
	}
	importPath := strings.Trim(strings.TrimSpace(text(pathNode, content)), `"`)
	if importPath == "" {
		return syntax.Import{}, false
	}
	alias := strings.TrimSpace(text(spec.ChildByFieldName("name"), content))
	if alias == "_" || alias == "." {
		alias = ""
	}
	return syntax.Import{
		Module: normalizeGoImportPath(importPath),
		Alias:  alias,
		Line:   int(spec.StartPoint().Row) + 1,
	}, true
}

// normalizeGoImportPath drops a leading module prefix (host/org/repo)
// so repo-internal imports resolve against the repository root.
// Standard library paths have no domain segment and pass through.
func normalizeGoImportPath(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) > 3 && strings.Contains(parts[0], ".") {
		return strings.Join(parts[3:], "/")
	}
	return p
}

func (g *GoAdapter) countDecisions(node *sitter.Node, content []byte, f *syntax.File) {
	t := node.Type()
	if goDecisionTypes[t] {
		f.Decisions++
	} else if t == "binary_expression" {
		if op := text(node.ChildByFieldName("operator"), content); op == "&&" || op == "||" {
			f.Decisions++
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		g.countDecisions(node.Child(i), content, f)
	}
}

// StripBodies replaces every top-level function, method and function
// literal body with an elision comment. Doc comments sit outside the
// braces and survive untouched.
func (g *GoAdapter) StripBodies(ctx context.Context, content []byte) ([]byte, error) {
	tree, err := g.newParser().ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax errors")
	}

	var spans []span
	collectGoElisions(root, &spans)
	return applySpans(content, spans), nil
}

func collectGoElisions(node *sitter.Node, spans *[]span) {
	switch node.Type() {
	case "function_declaration", "method_declaration", "func_literal":
		if body := node.ChildByFieldName("body"); body != nil {
			start := body.StartByte() + 1
			end := body.EndByte() - 1
			if end > start {
				*spans = append(*spans, span{start: start, end: end, replacement: "\n\t" + goElision + "\n"})
			}
			return
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectGoElisions(node.Child(i), spans)
	}
}

func goPackageName(clause *sitter.Node, content []byte) string {
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		if child.Type() == "package_identifier" {
			return text(child, content)
		}
	}
	return ""
}

// goFunctionSignature renders a declaration header for functions and
// methods; a method's receiver clause sits between func and the name.
func goFunctionSignature(node *sitter.Node, content []byte) string {
	sig := "func"
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		sig += " " + text(recv, content)
	}
	if name := node.ChildByFieldName("name"); name != nil {
		sig += " " + text(name, content)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += text(params, content)
	}
	if result := node.ChildByFieldName("result"); result != nil {
		sig += " " + text(result, content)
	}
	return sig
}

func goTypeSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	sig := "type " + text(nameNode, content)
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			sig += " struct"
		case "interface_type":
			sig += " interface"
		default:
			sig += " " + text(typeNode, content)
		}
	}
	return sig
}

// precedingComments collects the contiguous comment block sitting
// directly above node.
func precedingComments(node *sitter.Node, content []byte) string {
	var lines []string
	row := int(node.StartPoint().Row)
	for prev := node.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		if int(prev.EndPoint().Row) < row-1 {
			break
		}
		lines = append([]string{text(prev, content)}, lines...)
		row = int(prev.StartPoint().Row)
	}
	return commentText(lines, "//")
}
