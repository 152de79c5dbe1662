package detect

import (
	"sort"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// LineRange is an inclusive 1-based line span.
type LineRange struct {
	Start int
	End   int
}

// AssessSeverity ranks a conflict region, highest rule first:
//
//  1. critical: two or more modifying changes with overlapping line ranges
//  2. high: any structural or removing change present
//  3. medium: any modifying change present
//  4. low: everything else, including purely additive sets
func AssessSeverity(changeTypes []change.ChangeType, changes []change.SemanticChange) change.ConflictSeverity {
	var modifyingRanges []LineRange
	for _, c := range changes {
		if c.Type.IsModifying() {
			modifyingRanges = append(modifyingRanges, LineRange{Start: c.LineStart, End: c.LineEnd})
		}
	}
	if len(modifyingRanges) >= 2 && rangesOverlap(modifyingRanges) {
		return change.SeverityCritical
	}

	hasModifying := false
	for _, t := range changeTypes {
		if t.IsStructural() || t.IsRemoving() {
			return change.SeverityHigh
		}
		if t.IsModifying() {
			hasModifying = true
		}
	}
	if hasModifying {
		return change.SeverityMedium
	}
	return change.SeverityLow
}

// rangesOverlap reports whether any two of the given inclusive ranges
// overlap. Touching boundaries count: (1,10) overlaps (10,20).
func rangesOverlap(ranges []LineRange) bool {
	if len(ranges) < 2 {
		return false
	}
	sorted := make([]LineRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].End >= sorted[i].Start {
			return true
		}
	}
	return false
}
