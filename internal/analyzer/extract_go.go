//go:build cgo

package analyzer

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor builds a symbol table from Go source files. Only top-level
// declarations matter for merge purposes; nested literals stay inside their
// enclosing symbol's text.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte) fileFacts {
	var facts fileFacts

	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "import_declaration":
			e.extractImports(node, source, &facts)

		case "function_declaration":
			if sym := namedSymbol(node, source, kindFunction); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}

		case "method_declaration":
			if sym := e.extractMethod(node, source); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}

		case "type_declaration":
			for j := uint(0); j < node.ChildCount(); j++ {
				spec := node.Child(j)
				if spec == nil || spec.Kind() != "type_spec" {
					continue
				}
				if sym := namedSymbol(spec, source, kindClass); sym != nil {
					// The symbol's span is the whole declaration for
					// single-spec blocks, so a modified body is attributed
					// to the type it defines.
					facts.Symbols = append(facts.Symbols, *sym)
				}
			}

		case "var_declaration", "const_declaration":
			e.extractVars(node, source, &facts)
		}
	}
	return facts
}

func (e *goExtractor) extractImports(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	var specs []*tree_sitter.Node
	var collect func(n *tree_sitter.Node)
	collect = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.Kind() == "import_spec" {
				specs = append(specs, child)
				continue
			}
			collect(child)
		}
	}
	collect(node)

	for _, spec := range specs {
		pathNode := spec.ChildByFieldName("path")
		if pathNode == nil {
			continue
		}
		name := strings.Trim(pathNode.Utf8Text(source), "\"")
		if name == "" {
			continue
		}
		start, end := lineSpan(spec)
		facts.Imports = append(facts.Imports, importFact{
			Name:      name,
			StartLine: start,
			EndLine:   end,
			Text:      spec.Utf8Text(source),
		})
	}
}

func (e *goExtractor) extractMethod(node *tree_sitter.Node, source []byte) *symbolFact {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	// Qualify by receiver type so same-named methods on different types
	// never collide in the diff.
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		if recvType := receiverTypeName(recv, source); recvType != "" {
			name = recvType + "." + name
		}
	}

	start, end := lineSpan(node)
	return &symbolFact{
		Name:      name,
		Kind:      kindMethod,
		StartLine: start,
		EndLine:   end,
		Text:      node.Utf8Text(source),
	}
}

func (e *goExtractor) extractVars(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil || (spec.Kind() != "var_spec" && spec.Kind() != "const_spec") {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		start, end := lineSpan(spec)
		facts.Symbols = append(facts.Symbols, symbolFact{
			Name:      nameNode.Utf8Text(source),
			Kind:      kindVariable,
			StartLine: start,
			EndLine:   end,
			Text:      spec.Utf8Text(source),
		})
	}
}

// receiverTypeName digs the bare type identifier out of a receiver
// parameter list, stripping any pointer star.
func receiverTypeName(recv *tree_sitter.Node, source []byte) string {
	var found string
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if found != "" {
			return
		}
		if n.Kind() == "type_identifier" {
			found = n.Utf8Text(source)
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(recv)
	return found
}

// namedSymbol extracts a symbol from a node with a "name" field child.
func namedSymbol(node *tree_sitter.Node, source []byte, kind symbolKind) *symbolFact {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	start, end := lineSpan(node)
	return &symbolFact{
		Name:      nameNode.Utf8Text(source),
		Kind:      kind,
		StartLine: start,
		EndLine:   end,
		Text:      node.Utf8Text(source),
	}
}
