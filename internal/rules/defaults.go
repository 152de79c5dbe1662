package rules

import "github.com/coalesce-dev/coalesce/internal/change"

// DefaultRules returns the built-in compatibility policy. Additive pairs
// merge deterministically; anything touching an existing symbol is delegated
// to AI; removals against modifications are manual-only.
func DefaultRules() []CompatibilityRule {
	return []CompatibilityRule{
		{
			TypeA:      change.AddImport,
			TypeB:      change.AddImport,
			Compatible: true,
			Strategy:   change.CombineImports,
			Reason:     "independent imports merge by set union",
		},
		{
			TypeA:      change.AddImport,
			TypeB:      change.AddFunction,
			Compatible: true,
			Strategy:   change.AppendBoth,
			Reason:     "an import and a new function never collide",
		},
		{
			TypeA:      change.AddFunction,
			TypeB:      change.AddFunction,
			Compatible: true,
			Strategy:   change.AppendBoth,
			Reason:     "distinct new functions can coexist",
		},
		{
			TypeA:      change.AddVariable,
			TypeB:      change.AddVariable,
			Compatible: true,
			Strategy:   change.AppendBoth,
			Reason:     "distinct new variables can coexist",
		},
		{
			TypeA:      change.AddHookCall,
			TypeB:      change.AddHookCall,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "hook call ordering is semantic; needs review of call sequence",
		},
		{
			TypeA:      change.ModifyFunction,
			TypeB:      change.ModifyFunction,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "both tasks rewrote the same function body",
		},
		{
			TypeA:      change.ModifyFunction,
			TypeB:      change.AddHookCall,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "hook insertion inside a rewritten function needs a combined edit",
		},
		{
			TypeA:      change.ModifyMethod,
			TypeB:      change.ModifyMethod,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "both tasks rewrote the same method body",
		},
		{
			TypeA:      change.ModifyClass,
			TypeB:      change.ModifyClass,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "overlapping class-level edits",
		},
		{
			TypeA:      change.RemoveFunction,
			TypeB:      change.ModifyFunction,
			Compatible: false,
			Strategy:   change.ManualOnly,
			Reason:     "one task deleted what the other rewrote",
		},
		{
			TypeA:      change.RemoveFunction,
			TypeB:      change.RemoveFunction,
			Compatible: true,
			Strategy:   change.AppendBoth,
			Reason:     "both tasks removed the same symbol; removal is idempotent",
		},
		{
			TypeA:      change.WrapJSX,
			TypeB:      change.ModifyFunction,
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     "structural wrapping around a rewritten body must be replayed",
		},
		{
			TypeA:      change.WrapJSX,
			TypeB:      change.WrapJSX,
			Compatible: false,
			Strategy:   change.ManualOnly,
			Reason:     "two structural wraps have no well-defined nesting order",
		},
	}
}
