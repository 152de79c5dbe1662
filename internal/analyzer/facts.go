//go:build cgo

package analyzer

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// symbolKind classifies a declared symbol for diffing purposes.
type symbolKind string

const (
	kindFunction symbolKind = "function"
	kindMethod   symbolKind = "method"
	kindClass    symbolKind = "class"
	kindVariable symbolKind = "variable"
)

// symbolFact is one declared symbol in one version of a file.
type symbolFact struct {
	Name      string
	Kind      symbolKind
	StartLine int
	EndLine   int
	Text      string

	// Hooks are use*-style call names inside the symbol (TS/TSX only).
	Hooks []string

	// JSXRoot is the tag name of the symbol's outermost JSX element
	// (TSX only, empty when the symbol returns no JSX).
	JSXRoot string
}

// importFact is one import declaration.
type importFact struct {
	Name      string
	StartLine int
	EndLine   int
	Text      string
}

// fileFacts is the extracted symbol table for one version of a file.
type fileFacts struct {
	Imports []importFact
	Symbols []symbolFact
}

// extractor builds a fileFacts table from a parsed tree.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte) fileFacts
}

// lineSpan converts a node's zero-based row span to 1-based inclusive lines.
func lineSpan(node *tree_sitter.Node) (int, int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}
