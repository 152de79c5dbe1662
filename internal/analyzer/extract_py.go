//go:build cgo

package analyzer

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor builds a symbol table from Python source. Methods are
// attributed to their class as "Class.method"; decorated definitions are
// unwrapped so the decorator lines count toward the symbol's span.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) fileFacts {
	var facts fileFacts
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		e.extractStatement(node, node, source, &facts)
	}
	return facts
}

// extractStatement handles one top-level statement. span carries the node
// whose lines the symbol covers, which differs from defn for decorated
// definitions.
func (e *pyExtractor) extractStatement(span, defn *tree_sitter.Node, source []byte, facts *fileFacts) {
	switch defn.Kind() {
	case "import_statement", "import_from_statement":
		start, end := lineSpan(defn)
		facts.Imports = append(facts.Imports, importFact{
			Name:      pyImportName(defn, source),
			StartLine: start,
			EndLine:   end,
			Text:      defn.Utf8Text(source),
		})

	case "decorated_definition":
		if inner := defn.ChildByFieldName("definition"); inner != nil {
			e.extractStatement(span, inner, source, facts)
		}

	case "function_definition":
		if sym := spannedSymbol(span, defn, source, kindFunction); sym != nil {
			facts.Symbols = append(facts.Symbols, *sym)
		}

	case "class_definition":
		if sym := spannedSymbol(span, defn, source, kindClass); sym != nil {
			facts.Symbols = append(facts.Symbols, *sym)
			e.extractClassMethods(defn, sym.Name, source, facts)
		}
	}
}

func (e *pyExtractor) extractClassMethods(classNode *tree_sitter.Node, className string, source []byte, facts *fileFacts) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member == nil {
			continue
		}
		span := member
		if member.Kind() == "decorated_definition" {
			if inner := member.ChildByFieldName("definition"); inner != nil {
				member = inner
			}
		}
		if member.Kind() != "function_definition" {
			continue
		}
		if sym := spannedSymbol(span, member, source, kindMethod); sym != nil {
			sym.Name = className + "." + sym.Name
			facts.Symbols = append(facts.Symbols, *sym)
		}
	}
}

// spannedSymbol is namedSymbol with the span taken from a wrapping node.
func spannedSymbol(span, defn *tree_sitter.Node, source []byte, kind symbolKind) *symbolFact {
	nameNode := defn.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	start, end := lineSpan(span)
	return &symbolFact{
		Name:      nameNode.Utf8Text(source),
		Kind:      kind,
		StartLine: start,
		EndLine:   end,
		Text:      span.Utf8Text(source),
	}
}

// pyImportName reports what an import statement brings in: the module for
// "from X import ..." and the first dotted name otherwise.
func pyImportName(node *tree_sitter.Node, source []byte) string {
	if node.Kind() == "import_from_statement" {
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			return mod.Utf8Text(source)
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "aliased_import":
			return child.Utf8Text(source)
		}
	}
	return node.Utf8Text(source)
}
