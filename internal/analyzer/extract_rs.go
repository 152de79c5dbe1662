//go:build cgo

package analyzer

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsExtractor builds a symbol table from Rust source. Structs and enums map
// to the class kind, impl-block functions become "Type.method" symbols, and
// use declarations are recorded as imports.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte) fileFacts {
	var facts fileFacts
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "use_declaration":
			start, end := lineSpan(node)
			facts.Imports = append(facts.Imports, importFact{
				Name:      rsUsePath(node, source),
				StartLine: start,
				EndLine:   end,
				Text:      node.Utf8Text(source),
			})

		case "function_item":
			if sym := namedSymbol(node, source, kindFunction); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}

		case "struct_item", "enum_item", "trait_item":
			if sym := namedSymbol(node, source, kindClass); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}

		case "impl_item":
			e.extractImplMethods(node, source, &facts)

		case "static_item", "const_item":
			if sym := namedSymbol(node, source, kindVariable); sym != nil {
				facts.Symbols = append(facts.Symbols, *sym)
			}
		}
	}
	return facts
}

func (e *rsExtractor) extractImplMethods(implNode *tree_sitter.Node, source []byte, facts *fileFacts) {
	typeName := ""
	if typeNode := implNode.ChildByFieldName("type"); typeNode != nil {
		typeName = typeNode.Utf8Text(source)
	}
	body := implNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member == nil || member.Kind() != "function_item" {
			continue
		}
		sym := namedSymbol(member, source, kindMethod)
		if sym == nil {
			continue
		}
		if typeName != "" {
			sym.Name = typeName + "." + sym.Name
		}
		facts.Symbols = append(facts.Symbols, *sym)
	}
}

func rsUsePath(node *tree_sitter.Node, source []byte) string {
	if arg := node.ChildByFieldName("argument"); arg != nil {
		return arg.Utf8Text(source)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "scoped_identifier", "identifier", "use_wildcard", "scoped_use_list", "use_as_clause":
			return child.Utf8Text(source)
		}
	}
	return node.Utf8Text(source)
}
