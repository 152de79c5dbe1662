package main

import (
	"fmt"
	"sort"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// printSummary writes a human-readable run summary to stdout.
func printSummary(rep *report.MergeReport) {
	fmt.Printf("Merge: %d task(s), %d file(s)\n\n", len(rep.TasksMerged), rep.Stats.FilesProcessed)

	paths := make([]string, 0, len(rep.FileResults))
	for path := range rep.FileResults {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	unresolved := 0
	for _, path := range paths {
		res := rep.FileResults[path]
		unresolved += len(res.ConflictsRemaining)
		marker := "  "
		if res.Decision == change.DecisionFailed || res.Decision == change.DecisionNeedsHumanReview {
			marker = "->"
		}
		fmt.Printf("  %s %-40s [%s]", marker, path, res.Decision)
		if len(res.ConflictsRemaining) > 0 {
			fmt.Printf(" %d unresolved", len(res.ConflictsRemaining))
		}
		fmt.Println()
	}

	fmt.Printf("\n  conflicts: %d detected, %d auto-merged, %d AI-resolved, %d unresolved\n",
		rep.Stats.ConflictsDetected,
		rep.Stats.ConflictsAutoResolved,
		rep.Stats.ConflictsAIResolved,
		unresolved)
	fmt.Printf("  AI calls: %d (~%d tokens)\n", rep.Stats.AICallsMade, rep.Stats.EstimatedTokensUsed)
	fmt.Printf("  success rate: %.0f%%\n", rep.Stats.SuccessRate()*100)

	if rep.Success {
		fmt.Println("  All conflicts resolved.")
	}
}
