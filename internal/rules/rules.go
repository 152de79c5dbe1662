// Package rules holds the compatibility-rule index: a static policy table
// saying which pairs of change types can be merged automatically and how.
package rules

import (
	"fmt"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// CompatibilityRule states whether an unordered pair of change types can be
// combined without AI help, and which strategy applies when it can.
type CompatibilityRule struct {
	TypeA         change.ChangeType    `yaml:"type_a" json:"type_a"`
	TypeB         change.ChangeType    `yaml:"type_b" json:"type_b"`
	Compatible    bool                 `yaml:"compatible" json:"compatible"`
	Strategy      change.MergeStrategy `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Reason        string               `yaml:"reason" json:"reason"`
	Bidirectional *bool                `yaml:"bidirectional,omitempty" json:"bidirectional,omitempty"`
}

// bidirectional defaults to true when unset.
func (r CompatibilityRule) bidirectional() bool {
	return r.Bidirectional == nil || *r.Bidirectional
}

// pairKey is the ordered lookup key for one rule direction.
type pairKey struct {
	a, b change.ChangeType
}

// Index is an O(1) lookup table from change-type pairs to rules.
// Build it once per run with IndexRules.
type Index struct {
	rules map[pairKey]CompatibilityRule
}

// IndexRules builds an Index from a rule list. Bidirectional rules are
// inserted under both orderings so lookups never need a second probe.
// Duplicate keys are not validated: the last-inserted rule wins. Existing
// rule sets depend on that, so keep it.
func IndexRules(ruleList []CompatibilityRule) *Index {
	idx := &Index{rules: make(map[pairKey]CompatibilityRule, len(ruleList)*2)}
	for _, r := range ruleList {
		idx.rules[pairKey{r.TypeA, r.TypeB}] = r
		if r.bidirectional() {
			idx.rules[pairKey{r.TypeB, r.TypeA}] = r
		}
	}
	return idx
}

// Len returns the number of indexed (directed) entries.
func (idx *Index) Len() int {
	return len(idx.rules)
}

// Verdict is the outcome of a compatibility lookup.
type Verdict struct {
	Compatible bool
	Strategy   change.MergeStrategy
	Reason     string
}

// AnalyzeCompatibility looks up the rule for the two changes' types. When no
// rule exists the verdict is conservative: incompatible, AI required. Unknown
// combinations are never assumed safe to auto-merge.
func (idx *Index) AnalyzeCompatibility(c1, c2 change.SemanticChange) Verdict {
	r, ok := idx.rules[pairKey{c1.Type, c2.Type}]
	if !ok {
		return Verdict{
			Compatible: false,
			Strategy:   change.AIRequired,
			Reason:     fmt.Sprintf("No compatibility rule defined for (%s, %s)", c1.Type, c2.Type),
		}
	}
	return Verdict{
		Compatible: r.Compatible,
		Strategy:   r.Strategy,
		Reason:     r.Reason,
	}
}
