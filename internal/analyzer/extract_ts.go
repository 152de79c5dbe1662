//go:build cgo

package analyzer

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// hookNameRe matches React-style hook identifiers.
var hookNameRe = regexp.MustCompile(`^use[A-Z]`)

// tsExtractor builds a symbol table from TypeScript source. With jsx set it
// also records each function's outermost JSX element so structural wraps can
// be told apart from body rewrites.
type tsExtractor struct {
	jsx bool
}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte) fileFacts {
	var facts fileFacts
	e.extractStatements(root, source, &facts)
	return facts
}

func (e *tsExtractor) extractStatements(parent *tree_sitter.Node, source []byte, facts *fileFacts) {
	for i := uint(0); i < parent.ChildCount(); i++ {
		node := parent.Child(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "export_statement":
			// Unwrap and treat the exported declaration as top-level.
			e.extractStatements(node, source, facts)

		case "import_statement":
			facts.Imports = append(facts.Imports, e.importFact(node, source))

		case "function_declaration":
			if sym := namedSymbol(node, source, kindFunction); sym != nil {
				e.annotate(sym, node, source)
				facts.Symbols = append(facts.Symbols, *sym)
			}

		case "class_declaration":
			if sym := namedSymbol(node, source, kindClass); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}
			e.extractMethods(node, source, facts)

		case "lexical_declaration", "variable_declaration":
			e.extractDeclarators(node, source, facts)
		}
	}
}

func (e *tsExtractor) importFact(node *tree_sitter.Node, source []byte) importFact {
	name := node.Utf8Text(source)
	if src := node.ChildByFieldName("source"); src != nil {
		name = strings.Trim(src.Utf8Text(source), "'\"")
	}
	start, end := lineSpan(node)
	return importFact{
		Name:      name,
		StartLine: start,
		EndLine:   end,
		Text:      node.Utf8Text(source),
	}
}

func (e *tsExtractor) extractMethods(classNode *tree_sitter.Node, source []byte, facts *fileFacts) {
	className := ""
	if nameNode := classNode.ChildByFieldName("name"); nameNode != nil {
		className = nameNode.Utf8Text(source)
	}
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member == nil || member.Kind() != "method_definition" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		if className != "" {
			name = className + "." + name
		}
		start, end := lineSpan(member)
		sym := symbolFact{
			Name:      name,
			Kind:      kindMethod,
			StartLine: start,
			EndLine:   end,
			Text:      member.Utf8Text(source),
		}
		e.annotate(&sym, member, source)
		facts.Symbols = append(facts.Symbols, sym)
	}
}

// extractDeclarators classifies each declarator: arrow-function values are
// functions (the common component idiom), everything else is a variable.
func (e *tsExtractor) extractDeclarators(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	for i := uint(0); i < node.ChildCount(); i++ {
		decl := node.Child(i)
		if decl == nil || decl.Kind() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		kind := kindVariable
		if value := decl.ChildByFieldName("value"); value != nil {
			if value.Kind() == "arrow_function" || value.Kind() == "function_expression" {
				kind = kindFunction
			}
		}
		start, end := lineSpan(node)
		sym := symbolFact{
			Name:      nameNode.Utf8Text(source),
			Kind:      kind,
			StartLine: start,
			EndLine:   end,
			Text:      node.Utf8Text(source),
		}
		if kind == kindFunction {
			e.annotate(&sym, decl, source)
		}
		facts.Symbols = append(facts.Symbols, sym)
	}
}

// annotate records hook calls and, in JSX mode, the outermost JSX element of
// a function-shaped symbol.
func (e *tsExtractor) annotate(sym *symbolFact, node *tree_sitter.Node, source []byte) {
	sym.Hooks = collectHooks(node, source)
	if e.jsx {
		sym.JSXRoot = outermostJSXTag(node, source)
	}
}

// collectHooks finds use*-style call names in the subtree, in call order.
func collectHooks(node *tree_sitter.Node, source []byte) []string {
	var hooks []string
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
				if name := fn.Utf8Text(source); hookNameRe.MatchString(name) {
					hooks = append(hooks, name)
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(node)
	return hooks
}

// outermostJSXTag returns the tag name of the shallowest JSX element in the
// subtree, or "" when the symbol renders no JSX.
func outermostJSXTag(node *tree_sitter.Node, source []byte) string {
	var found *tree_sitter.Node
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if found != nil {
			return
		}
		if n.Kind() == "jsx_element" || n.Kind() == "jsx_self_closing_element" {
			found = n
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
				if found != nil {
					return
				}
			}
		}
	}
	walk(node)
	if found == nil {
		return ""
	}
	return jsxTagName(found, source)
}

func jsxTagName(element *tree_sitter.Node, source []byte) string {
	target := element
	if element.Kind() == "jsx_element" {
		if opening := element.Child(0); opening != nil {
			target = opening
		}
	}
	if nameNode := target.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Utf8Text(source)
	}
	for i := uint(0); i < target.ChildCount(); i++ {
		child := target.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "member_expression", "jsx_identifier":
			return child.Utf8Text(source)
		}
	}
	return ""
}
