package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/resolve"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

func taskInput(taskID, intent string, analyses ...change.FileAnalysis) TaskInput {
	var all []change.SemanticChange
	for _, a := range analyses {
		all = append(all, a.Changes...)
	}
	return TaskInput{
		Snapshot: change.TaskSnapshot{TaskID: taskID, TaskIntent: intent, Changes: all},
		Analyses: analyses,
	}
}

func importAnalysis(file string) change.FileAnalysis {
	return change.FileAnalysis{
		FilePath: file,
		Changes: []change.SemanticChange{
			{Type: change.AddImport, Target: "react", Location: change.LocationFileTop, LineStart: 1, LineEnd: 1},
		},
	}
}

func modifyAnalysis(file, fn string, start, end int) change.FileAnalysis {
	return change.FileAnalysis{
		FilePath: file,
		Changes: []change.SemanticChange{
			{Type: change.ModifyFunction, Target: fn, Location: "function:" + fn, LineStart: start, LineEnd: end},
		},
	}
}

func newEngine(caller resolve.Caller, opts ...resolve.Option) *Engine {
	return New(rules.IndexRules(rules.DefaultRules()), resolve.NewResolver(caller, opts...), false)
}

func TestMerge_NoConflicts_AutoMerged(t *testing.T) {
	eng := newEngine(nil)

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "", change.FileAnalysis{FilePath: "a.go"}),
		taskInput("task-b", "", change.FileAnalysis{FilePath: "b.go"}),
	}})

	assert.True(t, rep.Success)
	assert.Equal(t, []string{"task-a", "task-b"}, rep.TasksMerged)
	assert.Equal(t, 2, rep.Stats.FilesProcessed)
	assert.Equal(t, 2, rep.Stats.FilesAutoMerged)
	assert.Equal(t, 0, rep.Stats.ConflictsDetected)
	require.NotNil(t, rep.CompletedAt)
}

func TestMerge_CompatibleImports_AutoResolved(t *testing.T) {
	eng := newEngine(nil)

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "", importAnalysis("app/page.tsx")),
		taskInput("task-b", "", importAnalysis("app/page.tsx")),
	}})

	assert.True(t, rep.Success)
	assert.Equal(t, 1, rep.Stats.ConflictsDetected)
	assert.Equal(t, 1, rep.Stats.ConflictsAutoResolved)

	res := rep.FileResults["app/page.tsx"]
	assert.Equal(t, change.DecisionAutoMerged, res.Decision)
	require.Len(t, res.ConflictsResolved, 1)
	assert.True(t, res.ConflictsResolved[0].CanAutoMerge)
}

func TestMerge_AIResolution(t *testing.T) {
	eng := newEngine(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		return "```go\nfunc run() { merged }\n```", nil
	}))

	rep := eng.Merge(context.Background(), Input{
		Tasks: []TaskInput{
			taskInput("task-a", "add retries", modifyAnalysis("main.go", "run", 10, 30)),
			taskInput("task-b", "add logging", modifyAnalysis("main.go", "run", 20, 40)),
		},
		BaselineCodes: map[string]string{"function:run": "func run() {}"},
	})

	assert.True(t, rep.Success)
	assert.Equal(t, 1, rep.Stats.FilesAIMerged)
	assert.Equal(t, 1, rep.Stats.ConflictsAIResolved)
	assert.Equal(t, 1, rep.Stats.AICallsMade)
	assert.Positive(t, rep.Stats.EstimatedTokensUsed)

	res := rep.FileResults["main.go"]
	assert.Equal(t, change.DecisionAIMerged, res.Decision)
	require.NotNil(t, res.MergedContent)
	assert.Equal(t, "func run() { merged }", *res.MergedContent)
}

func TestMerge_NoCaller_Escalates(t *testing.T) {
	eng := newEngine(nil)

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "", modifyAnalysis("main.go", "run", 10, 30)),
		taskInput("task-b", "", modifyAnalysis("main.go", "run", 20, 40)),
	}})

	assert.False(t, rep.Success)
	assert.Equal(t, 1, rep.Stats.FilesNeedReview)

	res := rep.FileResults["main.go"]
	assert.Equal(t, change.DecisionNeedsHumanReview, res.Decision)
	require.Len(t, res.ConflictsRemaining, 1)
}

func TestMerge_CallError_Fails(t *testing.T) {
	eng := newEngine(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("API error")
	}))

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "", modifyAnalysis("main.go", "run", 10, 30)),
		taskInput("task-b", "", modifyAnalysis("main.go", "run", 20, 40)),
	}})

	assert.False(t, rep.Success)
	assert.Equal(t, 1, rep.Stats.FilesFailed)

	res := rep.FileResults["main.go"]
	assert.Equal(t, change.DecisionFailed, res.Decision)
	require.NotNil(t, res.Error)
	assert.Equal(t, "API error", *res.Error)
}

func TestMerge_ManualOnly_Escalates(t *testing.T) {
	// A caller is configured, but removal-vs-modify is manual-only and must
	// bypass AI entirely.
	called := false
	eng := newEngine(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		called = true
		return "```go\nx\n```", nil
	}))

	removal := change.FileAnalysis{
		FilePath: "main.go",
		Changes: []change.SemanticChange{
			{Type: change.RemoveFunction, Target: "run", Location: "function:run", LineStart: 10, LineEnd: 30},
		},
	}

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "", removal),
		taskInput("task-b", "", modifyAnalysis("main.go", "run", 10, 35)),
	}})

	assert.False(t, rep.Success)
	assert.False(t, called)

	res := rep.FileResults["main.go"]
	assert.Equal(t, change.DecisionNeedsHumanReview, res.Decision)
	require.NotNil(t, res.Error)
	assert.Equal(t, "one task deleted what the other rewrote", *res.Error)
}

func TestMerge_MixedOutcomes_AcrossFiles(t *testing.T) {
	eng := newEngine(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		return "```ts\nmerged\n```", nil
	}))

	rep := eng.Merge(context.Background(), Input{Tasks: []TaskInput{
		taskInput("task-a", "",
			importAnalysis("app/page.tsx"),
			modifyAnalysis("svc.ts", "load", 5, 15),
		),
		taskInput("task-b", "",
			importAnalysis("app/page.tsx"),
			modifyAnalysis("svc.ts", "load", 10, 20),
		),
	}})

	assert.True(t, rep.Success)
	assert.Equal(t, 2, rep.Stats.FilesProcessed)
	assert.Equal(t, 1, rep.Stats.FilesAutoMerged)
	assert.Equal(t, 1, rep.Stats.FilesAIMerged)
	assert.Equal(t, 2, rep.Stats.ConflictsDetected)
	assert.Equal(t, 1, rep.Stats.ConflictsAutoResolved)
	assert.Equal(t, 1, rep.Stats.ConflictsAIResolved)
}

func TestMerge_Batch_OneCallPerFile(t *testing.T) {
	calls := 0
	eng := newEngine(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		calls++
		return "## Location: function:run\n```go\nmerged run\n```\n\n" +
			"## Location: function:stop\n```go\nmerged stop\n```\n", nil
	}))

	tasks := []TaskInput{
		taskInput("task-a", "", change.FileAnalysis{
			FilePath: "main.go",
			Changes: []change.SemanticChange{
				{Type: change.ModifyFunction, Target: "run", Location: "function:run", LineStart: 10, LineEnd: 20},
				{Type: change.ModifyFunction, Target: "stop", Location: "function:stop", LineStart: 30, LineEnd: 40},
			},
		}),
		taskInput("task-b", "", change.FileAnalysis{
			FilePath: "main.go",
			Changes: []change.SemanticChange{
				{Type: change.ModifyFunction, Target: "run", Location: "function:run", LineStart: 12, LineEnd: 22},
				{Type: change.ModifyFunction, Target: "stop", Location: "function:stop", LineStart: 32, LineEnd: 42},
			},
		}),
	}

	rep := eng.Merge(context.Background(), Input{Tasks: tasks, Batch: true})

	assert.True(t, rep.Success)
	assert.Equal(t, 1, calls, "batch mode resolves a file with one call")
	assert.Equal(t, 2, rep.Stats.ConflictsAIResolved)

	res := rep.FileResults["main.go"]
	require.NotNil(t, res.MergedContent)
	assert.Contains(t, *res.MergedContent, "merged run")
	assert.Contains(t, *res.MergedContent, "merged stop")
}

func TestGroupAnalysesByFile_SortedTasksFirstSeenFiles(t *testing.T) {
	perFile, fileOrder := groupAnalysesByFile([]TaskInput{
		taskInput("task-b", "", change.FileAnalysis{FilePath: "b.go"}, change.FileAnalysis{FilePath: "a.go"}),
		taskInput("task-a", "", change.FileAnalysis{FilePath: "a.go"}),
	})

	// task-a sorts first, so a.go is seen before b.go.
	assert.Equal(t, []string{"a.go", "b.go"}, fileOrder)
	assert.Len(t, perFile["a.go"], 2)
	assert.Len(t, perFile["b.go"], 1)
}
