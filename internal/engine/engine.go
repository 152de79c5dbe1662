// Package engine ties the detector, rule index, resolver, and report model
// into one merge run: detect conflicts, settle what rules allow, delegate
// the rest to AI, and escalate whatever is left.
//
// This is repo-internal plumbing, not a task orchestrator: it schedules
// nothing, owns no worktrees, and never retries.
package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/detect"
	"github.com/coalesce-dev/coalesce/internal/report"
	"github.com/coalesce-dev/coalesce/internal/resolve"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

// TaskInput is one task's snapshot plus its per-file analyses.
type TaskInput struct {
	Snapshot change.TaskSnapshot   `json:"snapshot"`
	Analyses []change.FileAnalysis `json:"analyses"`
}

// Input is everything one merge run consumes.
type Input struct {
	Tasks []TaskInput `json:"tasks"`

	// BaselineCodes maps a conflict location to the pre-edit code at that
	// location, shared by all tasks.
	BaselineCodes map[string]string `json:"baseline_codes"`

	// Batch resolves all of a file's conflicts with a single AI call.
	Batch bool `json:"batch"`
}

// Engine runs merge runs. Safe for sequential reuse; one run at a time.
type Engine struct {
	rules    *rules.Index
	resolver *resolve.Resolver
	verbose  bool
}

// New creates an Engine over the given rule index and resolver.
func New(idx *rules.Index, resolver *resolve.Resolver, verbose bool) *Engine {
	return &Engine{rules: idx, resolver: resolver, verbose: verbose}
}

// Merge executes one merge run and returns its report. Every failure mode is
// captured inside the report; the method itself does not fail.
func (e *Engine) Merge(ctx context.Context, in Input) *report.MergeReport {
	started := time.Now().UTC()
	rep := report.NewMergeReport(started)

	snapshots := make([]change.TaskSnapshot, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		snapshots = append(snapshots, t.Snapshot)
		rep.TasksMerged = append(rep.TasksMerged, t.Snapshot.TaskID)
	}
	sort.Strings(rep.TasksMerged)

	perFile, fileOrder := groupAnalysesByFile(in.Tasks)

	var allConflicts []change.ConflictRegion
	conflictsByFile := make(map[string][]change.ConflictRegion)
	for _, filePath := range fileOrder {
		conflicts := detect.DetectConflicts(perFile[filePath], e.rules)
		conflicts = append(conflicts, detect.DetectImplicitConflicts(perFile[filePath])...)
		conflictsByFile[filePath] = conflicts
		allConflicts = append(allConflicts, conflicts...)
	}
	rep.Stats.ConflictsDetected = len(allConflicts)
	if e.verbose {
		log.Printf("engine: %d files, %d conflict regions", len(fileOrder), len(allConflicts))
	}

	for _, filePath := range fileOrder {
		res := e.mergeFile(ctx, filePath, conflictsByFile[filePath], in.BaselineCodes, snapshots, in.Batch)
		rep.AddResult(res)
		tallyResult(&rep.Stats, res)
	}

	success := rep.Stats.FilesFailed == 0 && rep.Stats.FilesNeedReview == 0
	rep.Complete(time.Now().UTC(), success, "")
	return rep
}

// mergeFile settles one file: rules first, then AI for what rules declined,
// then human escalation for the remainder.
func (e *Engine) mergeFile(ctx context.Context, filePath string, conflicts []change.ConflictRegion, baselineCodes map[string]string, snapshots []change.TaskSnapshot, batch bool) report.MergeResult {
	if len(conflicts) == 0 {
		return report.MergeResult{
			Decision: change.DecisionAutoMerged,
			FilePath: filePath,
		}
	}

	var auto, forAI, forHuman []change.ConflictRegion
	for _, c := range conflicts {
		switch {
		case c.CanAutoMerge:
			auto = append(auto, c)
		case e.resolver.CanResolve(c):
			forAI = append(forAI, c)
		default:
			forHuman = append(forHuman, c)
		}
	}

	if len(forAI) == 0 {
		res := report.MergeResult{
			FilePath:           filePath,
			ConflictsResolved:  auto,
			ConflictsRemaining: forHuman,
		}
		if len(forHuman) == 0 {
			res.Decision = change.DecisionAutoMerged
		} else {
			res.Decision = change.DecisionNeedsHumanReview
			why := forHuman[0].Reason
			res.Error = &why
		}
		return res
	}

	aiResults := e.resolver.ResolveMultiple(ctx, forAI, baselineCodes, snapshots, batch)
	res := foldFileResults(filePath, aiResults)

	// Fold in the rule-settled and human-escalated regions.
	res.ConflictsResolved = append(auto, res.ConflictsResolved...)
	res.ConflictsRemaining = append(res.ConflictsRemaining, forHuman...)
	if len(res.ConflictsRemaining) > 0 && res.Decision != change.DecisionFailed {
		res.Decision = change.DecisionNeedsHumanReview
	}
	return res
}

// foldFileResults collapses the resolver's results for one file into a
// single MergeResult. Batch mode already yields one result per file; the
// non-batch path yields one per conflict.
func foldFileResults(filePath string, results []report.MergeResult) report.MergeResult {
	if len(results) == 1 {
		return results[0]
	}

	folded := report.MergeResult{FilePath: filePath, Decision: change.DecisionAIMerged}
	var fragments []string
	for _, r := range results {
		folded.ConflictsResolved = append(folded.ConflictsResolved, r.ConflictsResolved...)
		folded.ConflictsRemaining = append(folded.ConflictsRemaining, r.ConflictsRemaining...)
		folded.AICallsMade += r.AICallsMade
		folded.TokensUsed += r.TokensUsed
		if r.MergedContent != nil {
			fragments = append(fragments, *r.MergedContent)
		}
		if r.Decision == change.DecisionFailed {
			folded.Decision = change.DecisionFailed
			folded.Error = r.Error
		}
		if r.Error != nil && folded.Error == nil {
			folded.Error = r.Error
		}
	}
	if len(fragments) > 0 {
		merged := joinFragments(fragments)
		folded.MergedContent = &merged
	}
	if folded.Decision != change.DecisionFailed && len(folded.ConflictsRemaining) > 0 {
		folded.Decision = change.DecisionNeedsHumanReview
	}
	return folded
}

func joinFragments(fragments []string) string {
	out := fragments[0]
	for _, f := range fragments[1:] {
		out += "\n\n" + f
	}
	return out
}

// tallyResult updates run-level counters from one file's outcome.
func tallyResult(stats *report.MergeStats, res report.MergeResult) {
	stats.FilesProcessed++
	switch res.Decision {
	case change.DecisionAutoMerged:
		stats.FilesAutoMerged++
	case change.DecisionAIMerged:
		stats.FilesAIMerged++
	case change.DecisionNeedsHumanReview:
		stats.FilesNeedReview++
	case change.DecisionFailed:
		stats.FilesFailed++
	}
	for _, c := range res.ConflictsResolved {
		if c.CanAutoMerge {
			stats.ConflictsAutoResolved++
		} else {
			stats.ConflictsAIResolved++
		}
	}
	stats.AICallsMade += res.AICallsMade
	stats.EstimatedTokensUsed += res.TokensUsed
}

// groupAnalysesByFile restructures task inputs into per-file task→analysis
// maps, preserving first-seen file order across tasks sorted by ID.
func groupAnalysesByFile(tasks []TaskInput) (map[string]map[string]change.FileAnalysis, []string) {
	sorted := make([]TaskInput, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Snapshot.TaskID < sorted[j].Snapshot.TaskID })

	perFile := make(map[string]map[string]change.FileAnalysis)
	var fileOrder []string
	for _, t := range sorted {
		for _, analysis := range t.Analyses {
			if _, seen := perFile[analysis.FilePath]; !seen {
				perFile[analysis.FilePath] = make(map[string]change.FileAnalysis)
				fileOrder = append(fileOrder, analysis.FilePath)
			}
			perFile[analysis.FilePath][t.Snapshot.TaskID] = analysis
		}
	}
	return perFile, fileOrder
}
