package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-dev/coalesce/internal/change"
)

func conflictAt(file, location string) change.ConflictRegion {
	return change.ConflictRegion{
		FilePath:      file,
		Location:      location,
		TasksInvolved: []string{"task-a", "task-b"},
		Severity:      change.SeverityCritical,
		MergeStrategy: strategyOf(change.AIRequired),
	}
}

func TestResolveMultiple_NonBatch_InputOrder(t *testing.T) {
	var prompts []string
	r := NewResolver(CallerFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "```go\nmerged\n```", nil
	}))

	conflicts := []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
		conflictAt("b.go", "function:two"),
		conflictAt("a.go", "function:three"),
	}

	results := r.ResolveMultiple(context.Background(), conflicts, nil, nil, false)
	require.Len(t, results, 3)
	require.Len(t, prompts, 3)

	assert.Equal(t, "a.go", results[0].FilePath)
	assert.Equal(t, "b.go", results[1].FilePath)
	assert.Equal(t, "a.go", results[2].FilePath)
	assert.Contains(t, prompts[0], "function:one")
	assert.Contains(t, prompts[2], "function:three")
}

func TestResolveMultiple_Batch_OneCallPerFile(t *testing.T) {
	var calls atomic.Int64
	r := NewResolver(CallerFunc(func(_ context.Context, prompt string) (string, error) {
		calls.Add(1)
		// Answer every ## Location: section found in the prompt.
		var b strings.Builder
		for _, line := range strings.Split(prompt, "\n") {
			if strings.HasPrefix(line, "## Location: ") && !strings.Contains(line, "<location>") {
				loc := strings.TrimPrefix(line, "## Location: ")
				fmt.Fprintf(&b, "## Location: %s\n```go\nmerged %s\n```\n\n", loc, loc)
			}
		}
		return b.String(), nil
	}))

	conflicts := []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
		conflictAt("a.go", "function:two"),
		conflictAt("b.go", "function:three"),
	}

	results := r.ResolveMultiple(context.Background(), conflicts, nil, nil, true)
	require.Len(t, results, 2, "one result per file")
	assert.Equal(t, int64(2), calls.Load(), "one call per file")

	assert.Equal(t, "a.go", results[0].FilePath, "first-seen file order")
	assert.Equal(t, change.DecisionAIMerged, results[0].Decision)
	assert.Len(t, results[0].ConflictsResolved, 2)
	require.NotNil(t, results[0].MergedContent)
	assert.Contains(t, *results[0].MergedContent, "merged function:one")
	assert.Contains(t, *results[0].MergedContent, "merged function:two")

	assert.Equal(t, "b.go", results[1].FilePath)
	assert.Equal(t, change.DecisionAIMerged, results[1].Decision)
}

func TestResolveMultiple_Batch_PartialParse_NeedsReview(t *testing.T) {
	r := NewResolver(fixedCaller("## Location: function:one\n```go\nmerged\n```\n"))

	conflicts := []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
		conflictAt("a.go", "function:two"),
	}

	results := r.ResolveMultiple(context.Background(), conflicts, nil, nil, true)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, change.DecisionNeedsHumanReview, res.Decision)
	assert.Len(t, res.ConflictsResolved, 1)
	assert.Len(t, res.ConflictsRemaining, 1)
	require.NotNil(t, res.Error)
	assert.Equal(t, "Could not parse AI response for every location", *res.Error)
	require.NotNil(t, res.MergedContent, "partial resolution is reported, not discarded")
}

func TestResolveMultiple_Batch_BudgetFallback_Aggregates(t *testing.T) {
	var calls atomic.Int64
	r := NewResolver(CallerFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		return "```go\nmerged\n```", nil
	}), WithMaxContextTokens(30))

	// Each conflict's context fits the budget alone but not combined.
	baselines := map[string]string{
		"function:one": strings.Repeat("a", 80),
		"function:two": strings.Repeat("b", 80),
	}
	conflicts := []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
		conflictAt("a.go", "function:two"),
	}

	results := r.ResolveMultiple(context.Background(), conflicts, baselines, nil, true)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, int64(2), calls.Load(), "fallback resolves each conflict individually")
	assert.Equal(t, change.DecisionAIMerged, res.Decision)
	assert.Equal(t, 2, res.AICallsMade)
	assert.Len(t, res.ConflictsResolved, 2)
	require.NotNil(t, res.MergedContent)
	assert.Contains(t, *res.MergedContent, "## Location: function:one")
	assert.Contains(t, *res.MergedContent, "## Location: function:two")
}

func TestResolveMultiple_Batch_NoCaller_Escalates(t *testing.T) {
	r := NewResolver(nil)

	results := r.ResolveMultiple(context.Background(), []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
	}, nil, nil, true)
	require.Len(t, results, 1)

	assert.Equal(t, change.DecisionNeedsHumanReview, results[0].Decision)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, "No AI function configured", *results[0].Error)
}

func TestResolveMultiple_Batch_FailureDoesNotCancelOthers(t *testing.T) {
	r := NewResolver(CallerFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "bad.go") {
			return "", fmt.Errorf("upstream unavailable")
		}
		return "## Location: function:ok\n```go\nmerged\n```\n", nil
	}), WithConcurrency(1))

	conflicts := []change.ConflictRegion{
		conflictAt("bad.go", "function:broken"),
		conflictAt("good.go", "function:ok"),
	}

	results := r.ResolveMultiple(context.Background(), conflicts, nil, nil, true)
	require.Len(t, results, 2)

	assert.Equal(t, change.DecisionFailed, results[0].Decision)
	assert.Equal(t, change.DecisionAIMerged, results[1].Decision,
		"one file's failure must not abort the remaining batches")
}

func TestResolveMultiple_Batch_EmitsEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	r := NewResolver(fixedCaller("## Location: function:one\n```go\nmerged\n```\n"),
		WithEventFunc(func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}))

	r.ResolveMultiple(context.Background(), []change.ConflictRegion{
		conflictAt("a.go", "function:one"),
	}, nil, nil, true)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, EventPending, events[0].Status)
	assert.Equal(t, EventWorking, events[1].Status)
	assert.Equal(t, EventComplete, events[2].Status)
}
