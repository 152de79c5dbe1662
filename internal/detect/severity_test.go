package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coalesce-dev/coalesce/internal/change"
)

func TestRangesOverlap(t *testing.T) {
	tests := []struct {
		name   string
		ranges []LineRange
		want   bool
	}{
		{"empty", nil, false},
		{"single", []LineRange{{1, 10}}, false},
		{"disjoint", []LineRange{{1, 10}, {11, 20}}, false},
		{"touching", []LineRange{{1, 10}, {10, 20}}, true},
		{"nested", []LineRange{{1, 40}, {10, 20}}, true},
		{"unsorted input", []LineRange{{30, 50}, {1, 10}, {9, 12}}, true},
		{"three disjoint", []LineRange{{1, 5}, {6, 9}, {10, 20}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rangesOverlap(tt.ranges))
		})
	}
}

func TestAssessSeverity_Critical_OverlappingModifies(t *testing.T) {
	changes := []change.SemanticChange{
		{Type: change.ModifyFunction, LineStart: 10, LineEnd: 30},
		{Type: change.ModifyFunction, LineStart: 20, LineEnd: 40},
	}
	got := AssessSeverity([]change.ChangeType{change.ModifyFunction}, changes)
	assert.Equal(t, change.SeverityCritical, got)
}

func TestAssessSeverity_Medium_DisjointModifies(t *testing.T) {
	changes := []change.SemanticChange{
		{Type: change.ModifyFunction, LineStart: 1, LineEnd: 10},
		{Type: change.ModifyFunction, LineStart: 11, LineEnd: 20},
	}
	got := AssessSeverity([]change.ChangeType{change.ModifyFunction}, changes)
	assert.Equal(t, change.SeverityMedium, got)
}

func TestAssessSeverity_High_Structural(t *testing.T) {
	changes := []change.SemanticChange{
		{Type: change.WrapJSX, LineStart: 5, LineEnd: 25},
		{Type: change.AddFunction, LineStart: 30, LineEnd: 40},
	}
	got := AssessSeverity([]change.ChangeType{change.WrapJSX, change.AddFunction}, changes)
	assert.Equal(t, change.SeverityHigh, got)
}

func TestAssessSeverity_High_Removal(t *testing.T) {
	changes := []change.SemanticChange{
		{Type: change.RemoveFunction, LineStart: 5, LineEnd: 25},
	}
	got := AssessSeverity([]change.ChangeType{change.RemoveFunction}, changes)
	assert.Equal(t, change.SeverityHigh, got)
}

func TestAssessSeverity_Low_AdditiveOnly(t *testing.T) {
	changes := []change.SemanticChange{
		{Type: change.AddImport, LineStart: 1, LineEnd: 1},
		{Type: change.AddImport, LineStart: 1, LineEnd: 1},
	}
	got := AssessSeverity([]change.ChangeType{change.AddImport}, changes)
	assert.Equal(t, change.SeverityLow, got)
}

func TestAssessSeverity_Low_Empty(t *testing.T) {
	got := AssessSeverity(nil, nil)
	assert.Equal(t, change.SeverityLow, got)
}
