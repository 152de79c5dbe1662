//go:build cgo

package analyzer

import (
	"strings"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// diffFacts compares two symbol tables and emits one SemanticChange per
// materially different symbol, in the modified version's declaration order.
func diffFacts(base, mod fileFacts) []change.SemanticChange {
	var changes []change.SemanticChange

	baseImports := make(map[string]bool, len(base.Imports))
	for _, imp := range base.Imports {
		baseImports[imp.Name] = true
	}
	for _, imp := range mod.Imports {
		if baseImports[imp.Name] {
			continue
		}
		changes = append(changes, change.SemanticChange{
			Type:         change.AddImport,
			Target:       imp.Name,
			Location:     change.LocationFileTop,
			LineStart:    imp.StartLine,
			LineEnd:      imp.EndLine,
			ContentAfter: imp.Text,
		})
	}

	baseSymbols := make(map[string]symbolFact, len(base.Symbols))
	for _, sym := range base.Symbols {
		baseSymbols[sym.Name] = sym
	}
	modSymbols := make(map[string]bool, len(mod.Symbols))

	for _, sym := range mod.Symbols {
		modSymbols[sym.Name] = true
		before, existed := baseSymbols[sym.Name]
		if !existed {
			changes = append(changes, change.SemanticChange{
				Type:         addKind(sym.Kind),
				Target:       sym.Name,
				Location:     symbolLocation(sym),
				LineStart:    sym.StartLine,
				LineEnd:      sym.EndLine,
				ContentAfter: sym.Text,
			})
			continue
		}
		if sym.Text == before.Text {
			continue
		}
		changes = append(changes, classifyRewrite(before, sym)...)
	}

	// Removals, in baseline declaration order. Only function-shaped symbols
	// produce removal changes; a vanished variable or class shows up through
	// the edits that consumed it.
	for _, sym := range base.Symbols {
		if modSymbols[sym.Name] {
			continue
		}
		if sym.Kind != kindFunction && sym.Kind != kindMethod {
			continue
		}
		changes = append(changes, change.SemanticChange{
			Type:      change.RemoveFunction,
			Target:    sym.Name,
			Location:  symbolLocation(sym),
			LineStart: sym.StartLine,
			LineEnd:   sym.EndLine,
		})
	}

	return changes
}

// classifyRewrite decides what a same-name text difference means, most
// specific signal first: a re-rooted JSX tree is a structural wrap, new
// use*-calls are hook insertions, anything else is a plain modification.
func classifyRewrite(before, after symbolFact) []change.SemanticChange {
	if after.JSXRoot != "" && before.JSXRoot != "" && after.JSXRoot != before.JSXRoot &&
		strings.Contains(after.Text, "<"+before.JSXRoot) {
		return []change.SemanticChange{{
			Type:         change.WrapJSX,
			Target:       after.Name,
			Location:     symbolLocation(after),
			LineStart:    after.StartLine,
			LineEnd:      after.EndLine,
			ContentAfter: after.Text,
		}}
	}

	if newHooks := addedHooks(before.Hooks, after.Hooks); len(newHooks) > 0 {
		changes := make([]change.SemanticChange, 0, len(newHooks))
		for _, hook := range newHooks {
			changes = append(changes, change.SemanticChange{
				Type:         change.AddHookCall,
				Target:       hook,
				Location:     symbolLocation(after),
				LineStart:    after.StartLine,
				LineEnd:      after.EndLine,
				ContentAfter: after.Text,
			})
		}
		return changes
	}

	var t change.ChangeType
	switch after.Kind {
	case kindMethod:
		t = change.ModifyMethod
	case kindClass:
		t = change.ModifyClass
	case kindVariable:
		// Variable rewrites carry no dedicated change kind; the symbol's new
		// form travels as an addition of its current state.
		t = change.AddVariable
	default:
		t = change.ModifyFunction
	}
	return []change.SemanticChange{{
		Type:         t,
		Target:       after.Name,
		Location:     symbolLocation(after),
		LineStart:    after.StartLine,
		LineEnd:      after.EndLine,
		ContentAfter: after.Text,
	}}
}

func addKind(k symbolKind) change.ChangeType {
	switch k {
	case kindMethod:
		return change.AddMethod
	case kindClass:
		return change.AddClass
	case kindVariable:
		return change.AddVariable
	default:
		return change.AddFunction
	}
}

// symbolLocation builds the stable location key for a symbol, e.g.
// "function:foo".
func symbolLocation(sym symbolFact) string {
	switch sym.Kind {
	case kindClass:
		return "class:" + sym.Name
	case kindVariable:
		return "variable:" + sym.Name
	default:
		return "function:" + sym.Name
	}
}

func addedHooks(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, h := range before {
		seen[h] = true
	}
	var added []string
	for _, h := range after {
		if !seen[h] {
			seen[h] = true
			added = append(added, h)
		}
	}
	return added
}
