package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-dev/coalesce/internal/change"
)

func TestAnalyzeCompatibility_Bidirectional(t *testing.T) {
	idx := IndexRules([]CompatibilityRule{
		{
			TypeA:      change.AddImport,
			TypeB:      change.AddFunction,
			Compatible: true,
			Strategy:   change.AppendBoth,
			Reason:     "independent additions",
		},
	})

	v := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.AddFunction},
		change.SemanticChange{Type: change.AddImport},
	)
	assert.True(t, v.Compatible, "rule should apply in both orderings")
	assert.Equal(t, change.AppendBoth, v.Strategy)
	assert.Equal(t, "independent additions", v.Reason)
}

func TestAnalyzeCompatibility_NonBidirectional(t *testing.T) {
	no := false
	idx := IndexRules([]CompatibilityRule{
		{
			TypeA:         change.RemoveFunction,
			TypeB:         change.ModifyFunction,
			Compatible:    false,
			Strategy:      change.ManualOnly,
			Reason:        "removal wins",
			Bidirectional: &no,
		},
	})

	forward := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.RemoveFunction},
		change.SemanticChange{Type: change.ModifyFunction},
	)
	assert.Equal(t, change.ManualOnly, forward.Strategy)
	assert.Equal(t, "removal wins", forward.Reason)

	// The reverse ordering falls through to the conservative default.
	reverse := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.ModifyFunction},
		change.SemanticChange{Type: change.RemoveFunction},
	)
	assert.False(t, reverse.Compatible)
	assert.Equal(t, change.AIRequired, reverse.Strategy)
}

func TestAnalyzeCompatibility_LastRuleWins(t *testing.T) {
	idx := IndexRules([]CompatibilityRule{
		{TypeA: change.AddImport, TypeB: change.AddImport, Compatible: false, Reason: "first"},
		{TypeA: change.AddImport, TypeB: change.AddImport, Compatible: true, Strategy: change.CombineImports, Reason: "second"},
	})

	v := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.AddImport},
		change.SemanticChange{Type: change.AddImport},
	)
	assert.True(t, v.Compatible)
	assert.Equal(t, "second", v.Reason)
}

func TestAnalyzeCompatibility_NoRule_Conservative(t *testing.T) {
	idx := IndexRules(nil)

	v := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.WrapJSX},
		change.SemanticChange{Type: change.AddVariable},
	)
	assert.False(t, v.Compatible)
	assert.Equal(t, change.AIRequired, v.Strategy)
	assert.Equal(t, "No compatibility rule defined for (wrap_jsx, add_variable)", v.Reason)
}

func TestDefaultRules_ImportsCombine(t *testing.T) {
	idx := IndexRules(DefaultRules())

	v := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.AddImport},
		change.SemanticChange{Type: change.AddImport},
	)
	assert.True(t, v.Compatible)
	assert.Equal(t, change.CombineImports, v.Strategy)
}

func TestDefaultRules_ModifySameFunction_AIRequired(t *testing.T) {
	idx := IndexRules(DefaultRules())

	v := idx.AnalyzeCompatibility(
		change.SemanticChange{Type: change.ModifyFunction},
		change.SemanticChange{Type: change.ModifyFunction},
	)
	assert.False(t, v.Compatible)
	assert.Equal(t, change.AIRequired, v.Strategy)
}

func TestLoadRules_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	content := `rules:
  - type_a: add_import
    type_b: add_import
    compatible: true
    strategy: combine_imports
    reason: deduplicate import lists
  - type_a: remove_function
    type_b: modify_function
    compatible: false
    strategy: manual_only
    reason: conflicting edits
    bidirectional: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, change.AddImport, loaded[0].TypeA)
	assert.True(t, loaded[0].Compatible)
	require.NotNil(t, loaded[1].Bidirectional)
	assert.False(t, *loaded[1].Bidirectional)

	idx := IndexRules(loaded)
	// One bidirectional self-pair plus one directed rule.
	assert.Equal(t, 2, idx.Len())
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
