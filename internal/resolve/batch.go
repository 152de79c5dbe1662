package resolve

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// ResolveMultiple resolves a set of conflicts. baselineCodes is keyed by
// conflict location.
//
// With batch=false every conflict is resolved independently, in input order,
// one AI call each. With batch=true conflicts are grouped by file (first-seen
// file order preserved) and each file group is resolved with a single AI
// call; groups run in parallel, bounded by the resolver's concurrency limit,
// because batching assumes exactly one in-flight call per file.
func (r *Resolver) ResolveMultiple(ctx context.Context, conflicts []change.ConflictRegion, baselineCodes map[string]string, snapshots []change.TaskSnapshot, batch bool) []report.MergeResult {
	if !batch {
		results := make([]report.MergeResult, 0, len(conflicts))
		for _, c := range conflicts {
			results = append(results, r.ResolveConflict(ctx, c, baselineCodes[c.Location], snapshots))
		}
		return results
	}

	var fileOrder []string
	byFile := make(map[string][]change.ConflictRegion)
	for _, c := range conflicts {
		if _, seen := byFile[c.FilePath]; !seen {
			fileOrder = append(fileOrder, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}

	results := make([]report.MergeResult, len(fileOrder))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, filePath := range fileOrder {
		r.emit(Event{FilePath: filePath, Status: EventPending})
		g.Go(func() error {
			r.emit(Event{FilePath: filePath, Status: EventWorking})
			res := r.resolveFileBatch(gctx, filePath, byFile[filePath], baselineCodes, snapshots)
			results[i] = res

			switch res.Decision {
			case change.DecisionFailed:
				r.emit(Event{FilePath: filePath, Status: EventFailed, Message: derefOr(res.Error, "")})
			default:
				r.emit(Event{FilePath: filePath, Status: EventComplete})
			}
			// A failed file does not cancel the other batches; every
			// failure is already surfaced in its MergeResult.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// resolveFileBatch resolves all conflicts of one file with a single AI call.
// If the combined context would blow the token budget, it falls back to
// per-conflict resolution and synthesizes one aggregate result for the file.
// The aggregation policy lives only here so it can be revisited in one place.
func (r *Resolver) resolveFileBatch(ctx context.Context, filePath string, conflicts []change.ConflictRegion, baselineCodes map[string]string, snapshots []change.TaskSnapshot) report.MergeResult {
	if r.caller == nil {
		why := "No AI function configured"
		return report.MergeResult{
			Decision:           change.DecisionNeedsHumanReview,
			FilePath:           filePath,
			ConflictsRemaining: conflicts,
			Error:              &why,
		}
	}

	contexts := make([]ResolutionContext, 0, len(conflicts))
	totalTokens := 0
	for _, c := range conflicts {
		rc := BuildContext(c, baselineCodes[c.Location], snapshots)
		contexts = append(contexts, rc)
		totalTokens += rc.EstimatedTokens
	}

	if totalTokens > r.maxContextTokens {
		return r.resolveFileIndividually(ctx, filePath, conflicts, baselineCodes, snapshots)
	}

	language := languageForPath(filePath)
	response, err := r.caller.Call(ctx, buildBatchPrompt(filePath, language, contexts))
	if err != nil {
		msg := err.Error()
		return report.MergeResult{
			Decision:           change.DecisionFailed,
			FilePath:           filePath,
			ConflictsRemaining: conflicts,
			Error:              &msg,
		}
	}

	r.calls.Add(1)
	r.tokens.Add(int64(totalTokens))

	var (
		resolved  []change.ConflictRegion
		remaining []change.ConflictRegion
		fragments []string
	)
	for _, c := range conflicts {
		body, ok := parseBatchSection(response, c.Location)
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		resolved = append(resolved, c)
		fragments = append(fragments, formatFragment(c.Location, language, body))
	}

	result := report.MergeResult{
		FilePath:           filePath,
		ConflictsResolved:  resolved,
		ConflictsRemaining: remaining,
		AICallsMade:        1,
		TokensUsed:         totalTokens,
	}
	if len(fragments) > 0 {
		merged := strings.Join(fragments, "\n\n")
		result.MergedContent = &merged
	}
	if len(remaining) == 0 {
		result.Decision = change.DecisionAIMerged
	} else {
		// Partial resolution is reported, not discarded.
		result.Decision = change.DecisionNeedsHumanReview
		why := "Could not parse AI response for every location"
		result.Error = &why
	}
	return result
}

// resolveFileIndividually is the token-budget fallback: one AI call per
// conflict, folded into a single aggregate result for the file.
func (r *Resolver) resolveFileIndividually(ctx context.Context, filePath string, conflicts []change.ConflictRegion, baselineCodes map[string]string, snapshots []change.TaskSnapshot) report.MergeResult {
	language := languageForPath(filePath)

	var (
		resolved  []change.ConflictRegion
		remaining []change.ConflictRegion
		fragments []string
		calls     int
		tokens    int
		lastErr   *string
	)
	for _, c := range conflicts {
		res := r.ResolveConflict(ctx, c, baselineCodes[c.Location], snapshots)
		calls += res.AICallsMade
		tokens += res.TokensUsed
		resolved = append(resolved, res.ConflictsResolved...)
		remaining = append(remaining, res.ConflictsRemaining...)
		if res.Error != nil {
			lastErr = res.Error
		}
		if res.MergedContent != nil {
			fragments = append(fragments, formatFragment(c.Location, language, *res.MergedContent))
		}
	}

	result := report.MergeResult{
		FilePath:           filePath,
		ConflictsResolved:  resolved,
		ConflictsRemaining: remaining,
		AICallsMade:        calls,
		TokensUsed:         tokens,
	}
	if len(fragments) > 0 {
		merged := strings.Join(fragments, "\n\n")
		result.MergedContent = &merged
	}
	if len(remaining) == 0 {
		result.Decision = change.DecisionAIMerged
	} else {
		result.Decision = change.DecisionNeedsHumanReview
		result.Error = lastErr
	}
	return result
}

// formatFragment renders one resolved location in the same sectioned shape
// the batch prompt asks for, so aggregate outputs stay machine-parseable.
func formatFragment(location, language, body string) string {
	return "## Location: " + location + "\n```" + language + "\n" + body + "\n```"
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
