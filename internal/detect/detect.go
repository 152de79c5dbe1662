// Package detect groups the semantic changes of concurrent tasks by
// (file, location), filters out coincidental co-edits, and classifies the
// real conflicts by severity and auto-mergeability.
package detect

import (
	"sort"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

// taskChange pairs a change with the task that produced it.
type taskChange struct {
	taskID string
	change change.SemanticChange
}

// locationKey identifies one shared edit site across tasks.
type locationKey struct {
	filePath string
	location string
}

// DetectConflicts finds every (file, location) edited by two or more tasks
// and returns the regions that are genuine conflicts. Tasks are visited in
// sorted taskID order so that tasks_involved ordering is deterministic.
func DetectConflicts(taskAnalyses map[string]change.FileAnalysis, idx *rules.Index) []change.ConflictRegion {
	taskIDs := make([]string, 0, len(taskAnalyses))
	for id := range taskAnalyses {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	byLocation := make(map[locationKey][]taskChange)
	var keyOrder []locationKey
	for _, taskID := range taskIDs {
		analysis := taskAnalyses[taskID]
		for _, c := range analysis.Changes {
			key := locationKey{filePath: analysis.FilePath, location: c.Location}
			if _, seen := byLocation[key]; !seen {
				keyOrder = append(keyOrder, key)
			}
			byLocation[key] = append(byLocation[key], taskChange{taskID: taskID, change: c})
		}
	}

	var regions []change.ConflictRegion
	for _, key := range keyOrder {
		contributions := byLocation[key]
		if countDistinctTasks(contributions) < 2 {
			continue
		}
		if region := analyzeLocationConflict(key.filePath, key.location, contributions, idx); region != nil {
			regions = append(regions, *region)
		}
	}
	return regions
}

// DetectImplicitConflicts is reserved for conflicts that are not visible as
// same-location edits, such as one task renaming a function another task
// still calls by its old name. It is a known gap: no semantic-dependency
// model exists yet, so it always returns nil.
func DetectImplicitConflicts(taskAnalyses map[string]change.FileAnalysis) []change.ConflictRegion {
	return nil
}

// analyzeLocationConflict decides whether the changes at one shared location
// form a real conflict and, if so, classifies it. Returns nil when the
// changes target materially different symbols with no explicit relationship:
// a shared location string alone is not evidence of conflict.
func analyzeLocationConflict(filePath, location string, contributions []taskChange, idx *rules.Index) *change.ConflictRegion {
	if distinctTargets(contributions) > 1 && !relatedDespiteTargets(contributions, idx) {
		return nil
	}

	var (
		taskOrder   []string
		taskSeen    = make(map[string]bool)
		changeTypes []change.ChangeType
		typeSeen    = make(map[change.ChangeType]bool)
		changes     []change.SemanticChange
	)
	for _, tc := range contributions {
		if !taskSeen[tc.taskID] {
			taskSeen[tc.taskID] = true
			taskOrder = append(taskOrder, tc.taskID)
		}
		if !typeSeen[tc.change.Type] {
			typeSeen[tc.change.Type] = true
			changeTypes = append(changeTypes, tc.change.Type)
		}
		changes = append(changes, tc.change)
	}

	canAuto, strategy, reason := pairwiseCompatibility(changes, idx)

	return &change.ConflictRegion{
		FilePath:      filePath,
		Location:      location,
		TasksInvolved: taskOrder,
		ChangeTypes:   changeTypes,
		Severity:      AssessSeverity(changeTypes, changes),
		CanAutoMerge:  canAuto,
		MergeStrategy: strategy,
		Reason:        reason,
	}
}

// pairwiseCompatibility tests every distinct pair of contributing changes.
// The region is auto-mergeable only when all pairs are compatible. The first
// incompatible pair fixes the strategy and reason; otherwise the first pair
// does, mirroring single-rule lookups where the first match wins.
func pairwiseCompatibility(changes []change.SemanticChange, idx *rules.Index) (bool, *change.MergeStrategy, string) {
	var (
		first    *rules.Verdict
		verdict  rules.Verdict
		allCompt = true
	)
	for i := 0; i < len(changes); i++ {
		for j := i + 1; j < len(changes); j++ {
			verdict = idx.AnalyzeCompatibility(changes[i], changes[j])
			if first == nil {
				v := verdict
				first = &v
			}
			if !verdict.Compatible {
				strategy := verdict.Strategy
				return false, strategyPtr(strategy), verdict.Reason
			}
		}
	}
	if first == nil {
		return allCompt, nil, ""
	}
	return allCompt, strategyPtr(first.Strategy), first.Reason
}

func strategyPtr(s change.MergeStrategy) *change.MergeStrategy {
	if s == "" {
		return nil
	}
	return &s
}

func countDistinctTasks(contributions []taskChange) int {
	seen := make(map[string]bool, len(contributions))
	for _, tc := range contributions {
		seen[tc.taskID] = true
	}
	return len(seen)
}

// relatedDespiteTargets reports whether changes naming different targets
// still have an explicit relationship at their shared location. An
// all-additive change set, or a compatible rule covering every change-type
// pair, is such a relationship: two tasks adding distinct imports at
// file_top must form one combinable region, not vanish as unrelated edits.
func relatedDespiteTargets(contributions []taskChange, idx *rules.Index) bool {
	allAdditive := true
	for _, tc := range contributions {
		if !tc.change.Type.IsAdditive() {
			allAdditive = false
			break
		}
	}
	if allAdditive {
		return true
	}
	for i := 0; i < len(contributions); i++ {
		for j := i + 1; j < len(contributions); j++ {
			if !idx.AnalyzeCompatibility(contributions[i].change, contributions[j].change).Compatible {
				return false
			}
		}
	}
	return true
}

func distinctTargets(contributions []taskChange) int {
	seen := make(map[string]bool, len(contributions))
	for _, tc := range contributions {
		seen[tc.change.Target] = true
	}
	return len(seen)
}
